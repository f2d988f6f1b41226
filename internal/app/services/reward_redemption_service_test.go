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
)

func redeemReward(env *testEnv, client uuid.UUID, reward *models.Reward) (*models.RewardRedemption, error) {
	return env.redemptions.RedeemReward(context.Background(), &models.RedeemRewardRequest{
		ClientID: client.String(),
		RewardID: reward.ID.String(),
	})
}

func deliver(env *testEnv, code string) (*models.RewardRedemption, error) {
	return env.redemptions.DeliverRedemption(context.Background(), &models.DeliverRedemptionRequest{
		Code:        code,
		DeliveredBy: newID().String(),
	})
}

func TestRedeemRewardWithoutEnoughStampsLeavesCardUnchanged(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 2)
	reward := env.createReward(t, business, 3, ptr(int64(5)))

	_, err := redeemReward(env, client, reward)
	assert.ErrorIs(t, err, errors.ErrNotEnoughStamps)

	card := env.card(t, client, business)
	assert.Equal(t, int64(2), card.AvailableStamps)
	assert.Equal(t, int64(0), card.UsedStamps)
	assert.Equal(t, int64(2), card.TotalStamps)

	stored, err := env.rewards.GetReward(context.Background(), reward.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Stock)

	_, err = redeemReward(env, newID(), reward)
	assert.ErrorIs(t, err, errors.ErrNotEnoughStamps)
}

func TestRedemptionBalancesBeforeSpentAfter(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 10)
	reward := env.createReward(t, business, 3, nil)

	for i := 0; i < 3; i++ {
		redemption, err := redeemReward(env, client, reward)
		require.NoError(t, err)
		assert.Equal(t, redemption.StampsAfter, redemption.StampsBefore-redemption.StampsSpent)
		assert.Equal(t, models.RedemptionStatusPending, redemption.Status)
		assert.NotEmpty(t, redemption.Code)
	}

	card := env.card(t, client, business)
	assert.Equal(t, int64(1), card.AvailableStamps)
	assert.Equal(t, int64(9), card.UsedStamps)
	assert.Equal(t, int64(10), card.TotalStamps)
}

func TestRedeemRewardRespectsStockAndAvailability(t *testing.T) {
	env := newTestEnv(t)
	business := newID()
	reward := env.createReward(t, business, 1, ptr(int64(1)))

	first, second := newID(), newID()
	env.credit(t, first, business, 1)
	env.credit(t, second, business, 1)

	_, err := redeemReward(env, first, reward)
	require.NoError(t, err)

	_, err = redeemReward(env, second, reward)
	assert.ErrorIs(t, err, errors.ErrRewardUnavailable)
	assert.Equal(t, int64(1), env.card(t, second, business).AvailableStamps)

	inactive := env.createReward(t, business, 1, nil)
	_, err = env.rewards.UpdateReward(context.Background(), business, inactive.ID.String(), &models.RewardUpdateRequest{Active: ptr(false)})
	require.NoError(t, err)
	_, err = redeemReward(env, second, inactive)
	assert.ErrorIs(t, err, errors.ErrRewardUnavailable)
}

func TestOneTimeUseReward(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 5)
	reward, err := env.rewards.CreateReward(context.Background(), &models.RewardCreateRequest{
		BusinessID: business.String(),
		Name:       "Welcome gift",
		StampsCost: 1,
		OneTimeUse: true,
	})
	require.NoError(t, err)

	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)

	_, err = redeemReward(env, client, reward)
	assert.ErrorIs(t, err, errors.ErrRewardAlreadyRedeemed)

	_, err = env.redemptions.CancelRedemption(context.Background(), &models.CancelRedemptionRequest{Code: redemption.Code})
	require.NoError(t, err)

	_, err = redeemReward(env, client, reward)
	assert.NoError(t, err)
}

func TestCancelPendingRedemptionRefunds(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 5)
	reward := env.createReward(t, business, 4, ptr(int64(2)))
	before := env.card(t, client, business)

	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	reason := "customer left"
	cancelled, err := env.redemptions.CancelRedemption(context.Background(), &models.CancelRedemptionRequest{
		Code:   redemption.Code,
		Reason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusCancelled, cancelled.Status)

	after := env.card(t, client, business)
	assert.Equal(t, before.AvailableStamps, after.AvailableStamps)
	assert.Equal(t, before.UsedStamps, after.UsedStamps)
	assert.Equal(t, before.TotalStamps, after.TotalStamps)

	stored, err := env.rewards.GetReward(context.Background(), reward.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Stock)

	code, err := env.registry.Get(context.Background(), redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusCancelled, code.Status)

	_, err = deliver(env, redemption.Code)
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	history, err := env.audit.GetEntityHistory(context.Background(), AuditEntityRedemption, redemption.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "PENDING", *history[0].ToStatus)
	assert.Equal(t, "CANCELLED", *history[1].ToStatus)
	assert.Equal(t, reason, *history[1].Reason)
}

func TestCancelDeliveredRedemptionIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 3)
	reward := env.createReward(t, business, 3, nil)

	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)
	_, err = deliver(env, redemption.Code)
	require.NoError(t, err)

	_, err = env.redemptions.CancelRedemption(context.Background(), &models.CancelRedemptionRequest{Code: redemption.Code})
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	_, err = deliver(env, redemption.Code)
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	card := env.card(t, client, business)
	assert.Equal(t, int64(0), card.AvailableStamps)
	assert.Equal(t, int64(3), card.UsedStamps)
}

func TestDeliverAfterExpiryExpiresRedemption(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 3)
	reward := env.createReward(t, business, 3, nil)

	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)

	env.clock.Advance(env.config.RedemptionCodeTTL + time.Minute)
	_, err = deliver(env, redemption.Code)
	assert.ErrorIs(t, err, errors.ErrRedemptionExpired)

	stored, err := env.redemptions.GetRedemption(context.Background(), redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusExpired, stored.Status)

	code, err := env.registry.Get(context.Background(), redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusExpired, code.Status)

	_, err = deliver(env, redemption.Code)
	assert.ErrorIs(t, err, errors.ErrRedemptionExpired)

	// expiry does not refund
	card := env.card(t, client, business)
	assert.Equal(t, int64(0), card.AvailableStamps)
	assert.Equal(t, int64(3), card.UsedStamps)
}

func TestCancelAfterExpiryExpiresWithoutRefund(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 3)
	reward := env.createReward(t, business, 3, ptr(int64(1)))

	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)

	env.clock.Advance(env.config.RedemptionCodeTTL + time.Minute)
	_, err = env.redemptions.CancelRedemption(context.Background(), &models.CancelRedemptionRequest{Code: redemption.Code})
	assert.ErrorIs(t, err, errors.ErrRedemptionExpired)

	stored, err := env.redemptions.GetRedemption(context.Background(), redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusExpired, stored.Status)

	code, err := env.registry.Get(context.Background(), redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusExpired, code.Status)

	card := env.card(t, client, business)
	assert.Equal(t, int64(0), card.AvailableStamps)
	assert.Equal(t, int64(3), card.UsedStamps)

	storedReward, err := env.rewards.GetReward(context.Background(), reward.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), storedReward.Stock)

	_, err = env.redemptions.CancelRedemption(context.Background(), &models.CancelRedemptionRequest{Code: redemption.Code})
	assert.ErrorIs(t, err, errors.ErrRedemptionExpired)
}

func TestCancelKeepsStockClosedByOwner(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 3)
	reward := env.createReward(t, business, 3, ptr(int64(5)))

	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.rewards.UpdateReward(context.Background(), business, reward.ID.String(), &models.RewardUpdateRequest{Stock: ptr(int64(0))})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.redemptions.CancelRedemption(context.Background(), &models.CancelRedemptionRequest{Code: redemption.Code})
	require.NoError(t, err)

	stored, err := env.rewards.GetReward(context.Background(), reward.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Stock)

	card := env.card(t, client, business)
	assert.Equal(t, int64(3), card.AvailableStamps)
}

func TestListPendingRedemptions(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 6)
	reward := env.createReward(t, business, 2, nil)

	first, err := redeemReward(env, client, reward)
	require.NoError(t, err)
	_, err = redeemReward(env, client, reward)
	require.NoError(t, err)
	_, err = deliver(env, first.Code)
	require.NoError(t, err)

	page, err := env.redemptions.ListPendingRedemptions(context.Background(), business, &models.PaginationRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)

	mine, err := env.redemptions.ListClientRedemptions(context.Background(), client, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, mine.TotalItems)
}

func TestLoyaltyScenario(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()

	code := env.issueStamp(t, business, 3)
	result, err := env.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{Code: code.Code, ClientID: client.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Card.AvailableStamps)
	assert.Equal(t, int64(0), result.Card.UsedStamps)
	assert.Equal(t, int64(3), result.Card.TotalStamps)
	assert.Equal(t, models.LevelForStamps(3), result.Card.Level)

	reward := env.createReward(t, business, 3, nil)
	redemption, err := redeemReward(env, client, reward)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusPending, redemption.Status)

	card := env.card(t, client, business)
	assert.Equal(t, int64(0), card.AvailableStamps)
	assert.Equal(t, int64(3), card.UsedStamps)
	assert.Equal(t, int64(3), card.TotalStamps)

	delivered, err := deliver(env, redemption.Code)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = redeemReward(env, client, reward)
	assert.ErrorIs(t, err, errors.ErrNotEnoughStamps)
}
