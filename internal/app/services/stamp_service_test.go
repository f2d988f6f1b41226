package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestIssueAndRedeemStamp(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()

	code, err := env.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID:   business.String(),
		Value:        3,
		Type:         models.StampTypePurchase,
		PurchaseType: models.PurchaseTypeTakeaway,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), code.Value)
	assert.Equal(t, models.CodeStatusActive, code.Status)

	result, err := env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{
		Code:     code.Code,
		ClientID: client.String(),
	})
	require.NoError(t, err)
	assert.True(t, result.IsNewCard)
	assert.Equal(t, int64(3), result.StampsAdded)
	assert.Equal(t, int64(3), result.Card.AvailableStamps)
	assert.Equal(t, int64(3), result.Card.TotalStamps)
	assert.Equal(t, models.CodeStatusUsed, result.StampCode.Status)

	second := env.issueStamp(t, business, 2)
	result, err = env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{
		Code:     second.Code,
		ClientID: client.String(),
	})
	require.NoError(t, err)
	assert.False(t, result.IsNewCard)
	assert.Equal(t, int64(5), result.Card.AvailableStamps)

	stored, err := env.stamps.GetStampCode(context.Background(), code.Code)
	require.NoError(t, err)
	assert.Equal(t, client, *stored.ClaimedBy)
}

func TestIssueStampValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID: newID().String(),
		Value:      0,
		Type:       models.StampTypeVisit,
	})
	assert.ErrorIs(t, err, errors.NewBadRequestError(""))

	past := env.clock.Now().Add(-time.Minute)
	_, err = env.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID: newID().String(),
		Value:      1,
		Type:       models.StampTypeVisit,
		ExpiresAt:  &past,
	})
	assert.ErrorIs(t, err, errors.NewBadRequestError(""))
}

func TestIssueStampRespectsMonthlyQuota(t *testing.T) {
	env := newTestEnv(t)
	env.gate.limits.MaxStampsPerPeriod = 10
	env.gate.usage.StampsIssued = 8

	_, err := env.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID: newID().String(),
		Value:      3,
		Type:       models.StampTypeVisit,
	})
	assert.ErrorIs(t, err, errors.ErrInvalidQuota)

	env.issueStamp(t, newID(), 2)
}

func TestIssueStampSurfacesGateOutage(t *testing.T) {
	env := newTestEnv(t)
	env.gate.err = errors.NewUnavailableError(errors.New("connection refused"), "Entitlement gate unavailable")

	_, err := env.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID: newID().String(),
		Value:      1,
		Type:       models.StampTypeVisit,
	})
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestConcurrentRedeemOfOneCodeHasExactlyOneWinner(t *testing.T) {
	env := newTestEnv(t)
	business := newID()
	code := env.issueStamp(t, business, 4)

	const attempts = 12
	clients := make([]uuid.UUID, attempts)
	errs := make([]error, attempts)
	for i := range clients {
		clients[i] = newID()
	}

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, errs[i] = env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{
				Code:     code.Code,
				ClientID: clients[i].String(),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	winners := 0
	var winner uuid.UUID
	for i, err := range errs {
		if err == nil {
			winners++
			winner = clients[i]
			continue
		}
		assert.ErrorIs(t, err, errors.ErrCodeAlreadyClaimed)
	}
	require.Equal(t, 1, winners)

	card := env.card(t, winner, business)
	assert.Equal(t, int64(4), card.AvailableStamps)

	var cards int64
	require.NoError(t, env.db.Model(&models.ClientCard{}).Where("business_id = ?", business).Count(&cards).Error)
	assert.Equal(t, int64(1), cards)
}

func TestRedeemExpiredStampCodeMarksItExpired(t *testing.T) {
	env := newTestEnv(t)
	business := newID()
	expiresAt := env.clock.Now().Add(time.Hour)
	code, err := env.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID: business.String(),
		Value:      1,
		Type:       models.StampTypeVisit,
		ExpiresAt:  &expiresAt,
	})
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	client := newID()
	_, err = env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: code.Code, ClientID: client.String()})
	assert.ErrorIs(t, err, errors.ErrCodeExpired)

	stored, err := env.stamps.GetStampCode(context.Background(), code.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusExpired, stored.Status)

	_, err = env.cards.GetCard(context.Background(), client, business)
	assert.ErrorIs(t, err, errors.NewNotFoundError(""))
}

func TestRedeemStampChecksClientQuotaOnlyForNewCards(t *testing.T) {
	env := newTestEnv(t)
	business, existing := newID(), newID()
	env.credit(t, existing, business, 1)

	env.gate.limits.MaxClients = 1
	env.gate.usage.Clients = 1

	code := env.issueStamp(t, business, 1)
	_, err := env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: code.Code, ClientID: newID().String()})
	assert.ErrorIs(t, err, errors.ErrQuotaExceeded)

	result, err := env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: code.Code, ClientID: existing.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Card.AvailableStamps)
}

func TestCancelStampCode(t *testing.T) {
	env := newTestEnv(t)
	business := newID()
	code := env.issueStamp(t, business, 1)

	_, err := env.stamps.CancelStampCode(context.Background(), newID(), code.Code)
	assert.ErrorIs(t, err, errors.ErrCodeNotFound)

	cancelled, err := env.stamps.CancelStampCode(context.Background(), business, code.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusCancelled, cancelled.Status)

	_, err = env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: code.Code, ClientID: newID().String()})
	assert.ErrorIs(t, err, errors.ErrCodeAlreadyClaimed)

	history, err := env.audit.GetEntityHistory(context.Background(), AuditEntityCode, code.Code)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "CANCELLED", *history[0].ToStatus)

	page, err := env.stamps.ListStampCodes(context.Background(), business, models.CodeStatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
}

func TestRedeemStampSurfacesStorageFailureBeforeQuotaCheck(t *testing.T) {
	env := newTestEnv(t)
	business := newID()
	code := env.issueStamp(t, business, 1)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: code.Code, ClientID: newID().String()})
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestRedeemUnknownStampCodeIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: "STP-MISSING", ClientID: newID().String()})
	assert.ErrorIs(t, err, errors.ErrCodeNotFound)
}
