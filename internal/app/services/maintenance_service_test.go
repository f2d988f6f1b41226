package services

import (
	"context"
	"testing"
	"time"

	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiresStaleRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	business, client := newID(), newID()

	expiresAt := env.clock.Now().Add(time.Hour)
	stale, err := env.stamps.IssueStamp(ctx, &models.IssueStampRequest{
		BusinessID: business.String(),
		Value:      2,
		Type:       models.StampTypeVisit,
		ExpiresAt:  &expiresAt,
	})
	require.NoError(t, err)
	open := env.issueStamp(t, business, 1)

	env.credit(t, client, business, 5)
	reward := env.createReward(t, business, 2, nil)
	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)

	campaign := env.createCampaign(t, business, models.IssuancePolicyManual, 1)
	ticket, err := issueTicket(env, client, campaign)
	require.NoError(t, err)

	nothing, err := env.maintenance.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{}, nothing)

	env.clock.Advance(8 * 24 * time.Hour)
	result, err := env.maintenance.Sweep(ctx)
	require.NoError(t, err)
	// the stamp code and the reward code both carry an expiry
	assert.Equal(t, int64(2), result.Codes)
	assert.Equal(t, int64(1), result.Redemptions)
	assert.Equal(t, int64(1), result.Tickets)

	code, err := env.registry.Get(ctx, stale.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusExpired, code.Status)

	code, err = env.registry.Get(ctx, open.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusActive, code.Status)

	stored, err := env.redemptions.GetRedemption(ctx, redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusExpired, stored.Status)

	// spent stamps stay spent
	card := env.card(t, client, business)
	assert.Equal(t, int64(3), card.AvailableStamps)
	assert.Equal(t, int64(2), card.UsedStamps)

	var storedTicket models.ScratchTicket
	require.NoError(t, env.db.Where("id = ?", ticket.ID).First(&storedTicket).Error)
	assert.Equal(t, models.TicketStatusExpired, storedTicket.Status)
	code, err = env.registry.Get(ctx, ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusExpired, code.Status)

	again, err := env.maintenance.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{}, again)
}
