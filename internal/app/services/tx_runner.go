package services

import (
	"context"
	"time"

	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/safatanc/loyalty-core/internal/app/services"

// ErrConflict is returned from inside a unit of work that lost a version race.
var ErrConflict = pkg.ErrConflict

// TxRunner runs a unit of work as one database transaction per attempt and
// retries the whole attempt when it lost an optimistic-concurrency race.
type TxRunner struct {
	db      *gorm.DB
	policy  pkg.RetryPolicy
	metrics *infrastructures.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func NewTxRunner(db *gorm.DB, config *infrastructures.AppConfig, metrics *infrastructures.Metrics) *TxRunner {
	return &TxRunner{
		db: db,
		policy: pkg.RetryPolicy{
			MaxAttempts:     config.RetryMaxAttempts,
			InitialInterval: config.RetryInitialInterval,
			MaxInterval:     config.RetryMaxInterval,
		},
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// Now is the clock every service reads, always in UTC.
func (r *TxRunner) Now() time.Time {
	return r.now().UTC()
}

// Run executes fn inside a transaction. fn must only use the tx it is given.
// Returning pkg.ErrConflict rolls back and retries; any other error rolls back
// and is returned. Storage failures surface as errors.ErrUnavailable.
func (r *TxRunner) Run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, span := r.tracer.Start(ctx, op)
	defer span.End()

	_, err := pkg.Retry(ctx, r.policy, func() (struct{}, error) {
		return struct{}{}, r.classify(ctx, r.db.WithContext(ctx).Transaction(fn))
	}, func(attempt uint) {
		r.metrics.ObserveConflict(op)
		span.AddEvent("conflict", trace.WithAttributes(attribute.Int("attempt", int(attempt))))
	})

	outcome := ""
	if err != nil {
		outcome = errors.CodeInternal
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	r.metrics.ObserveOperation(op, outcome)
	return err
}

func (r *TxRunner) classify(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, pkg.ErrConflict) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errors.NewUnavailableError(err, "Storage unavailable")
}
