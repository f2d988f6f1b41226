package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
)

// EntitlementGate answers quota questions about a business's subscription
// plan. It is owned by the billing system and only ever read here.
type EntitlementGate interface {
	CurrentUsage(ctx context.Context, businessID uuid.UUID, period string) (*models.EntitlementUsage, error)
	PlanLimits(ctx context.Context, businessID uuid.UUID) (*models.PlanLimits, error)
}

// RedisEntitlementGate reads the plan hashes the billing system maintains:
//
//	<prefix>:entitlements:<business>:limits           max_stamps, max_rewards, max_clients
//	<prefix>:entitlements:<business>:usage:<YYYY-MM>  stamps_issued, rewards_active, clients
//
// A missing limit means unlimited, a missing usage counter means zero.
type RedisEntitlementGate struct {
	client *redis.Client
	prefix string
}

func NewRedisEntitlementGate(client *redis.Client, config *infrastructures.AppConfig) *RedisEntitlementGate {
	return &RedisEntitlementGate{
		client: client,
		prefix: config.RedisKeyPrefix,
	}
}

func (g *RedisEntitlementGate) limitsKey(businessID uuid.UUID) string {
	return fmt.Sprintf("%s:entitlements:%s:limits", g.prefix, businessID)
}

func (g *RedisEntitlementGate) usageKey(businessID uuid.UUID, period string) string {
	return fmt.Sprintf("%s:entitlements:%s:usage:%s", g.prefix, businessID, period)
}

func (g *RedisEntitlementGate) PlanLimits(ctx context.Context, businessID uuid.UUID) (*models.PlanLimits, error) {
	fields, err := g.client.HGetAll(ctx, g.limitsKey(businessID)).Result()
	if err != nil {
		return nil, errors.NewUnavailableError(err, "Entitlement gate unavailable")
	}

	limits := &models.PlanLimits{}
	if limits.MaxStampsPerPeriod, err = hashInt(fields, "max_stamps", models.Unlimited); err != nil {
		return nil, err
	}
	if limits.MaxActiveRewards, err = hashInt(fields, "max_rewards", models.Unlimited); err != nil {
		return nil, err
	}
	if limits.MaxClients, err = hashInt(fields, "max_clients", models.Unlimited); err != nil {
		return nil, err
	}
	return limits, nil
}

func (g *RedisEntitlementGate) CurrentUsage(ctx context.Context, businessID uuid.UUID, period string) (*models.EntitlementUsage, error) {
	fields, err := g.client.HGetAll(ctx, g.usageKey(businessID, period)).Result()
	if err != nil {
		return nil, errors.NewUnavailableError(err, "Entitlement gate unavailable")
	}

	usage := &models.EntitlementUsage{Period: period}
	if usage.StampsIssued, err = hashInt(fields, "stamps_issued", 0); err != nil {
		return nil, err
	}
	if usage.RewardsActive, err = hashInt(fields, "rewards_active", 0); err != nil {
		return nil, err
	}
	if usage.Clients, err = hashInt(fields, "clients", 0); err != nil {
		return nil, err
	}
	return usage, nil
}

func hashInt(fields map[string]string, field string, fallback int64) (int64, error) {
	raw, ok := fields[field]
	if !ok || raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewUnavailableError(err, fmt.Sprintf("Entitlement field %s is malformed", field))
	}
	return value, nil
}

// EntitlementService turns plan limits and usage into accept or reject.
// Checks are advisory: they run before, never inside, the write they guard.
type EntitlementService struct {
	gate EntitlementGate
	tx   *TxRunner
}

func NewEntitlementService(gate EntitlementGate, tx *TxRunner) *EntitlementService {
	return &EntitlementService{
		gate: gate,
		tx:   tx,
	}
}

func (s *EntitlementService) load(ctx context.Context, businessID uuid.UUID) (*models.PlanLimits, *models.EntitlementUsage, error) {
	limits, err := s.gate.PlanLimits(ctx, businessID)
	if err != nil {
		return nil, nil, err
	}
	usage, err := s.gate.CurrentUsage(ctx, businessID, pkg.PeriodKey(s.tx.Now()))
	if err != nil {
		return nil, nil, err
	}
	return limits, usage, nil
}

// CheckStampQuota rejects issuing value more stamps this period.
func (s *EntitlementService) CheckStampQuota(ctx context.Context, businessID uuid.UUID, value int64) error {
	limits, usage, err := s.load(ctx, businessID)
	if err != nil {
		return err
	}
	if limits.MaxStampsPerPeriod != models.Unlimited && usage.StampsIssued+value > limits.MaxStampsPerPeriod {
		logrus.WithFields(logrus.Fields{
			"business_id": businessID,
			"issued":      usage.StampsIssued,
			"limit":       limits.MaxStampsPerPeriod,
		}).Info("stamp quota exhausted")
		return errors.ErrInvalidQuota.WithMessage("Monthly stamp quota exhausted")
	}
	return nil
}

// CheckRewardQuota rejects one more active reward.
func (s *EntitlementService) CheckRewardQuota(ctx context.Context, businessID uuid.UUID) error {
	limits, usage, err := s.load(ctx, businessID)
	if err != nil {
		return err
	}
	if limits.MaxActiveRewards != models.Unlimited && usage.RewardsActive >= limits.MaxActiveRewards {
		return errors.ErrInvalidQuota.WithMessage("Active reward quota exhausted")
	}
	return nil
}

// CheckClientQuota rejects associating one more client with the business.
func (s *EntitlementService) CheckClientQuota(ctx context.Context, businessID uuid.UUID) error {
	limits, usage, err := s.load(ctx, businessID)
	if err != nil {
		return err
	}
	if limits.MaxClients != models.Unlimited && usage.Clients >= limits.MaxClients {
		return errors.ErrQuotaExceeded.WithMessage("Business has reached its client limit")
	}
	return nil
}
