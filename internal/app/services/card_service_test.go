package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestApplyDeltaCreatesCardAndRecordsTransaction(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()

	mutation, err := env.cards.ApplyDelta(context.Background(), models.CardDelta{
		ClientID: client, BusinessID: business,
		AvailableDelta: 12, TotalDelta: 12,
		Type: models.CardTransactionTypeAccumulation, Reference: "STP-TEST",
	})
	require.NoError(t, err)
	assert.True(t, mutation.IsNewCard)
	assert.Equal(t, int64(0), mutation.Before.TotalStamps)
	assert.Equal(t, int64(12), mutation.Card.AvailableStamps)
	assert.Equal(t, 2, mutation.Card.Level)
	assert.NotNil(t, mutation.Card.LastStampDate)

	history, err := env.cards.ListCardTransactions(context.Background(), client, business, nil)
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	assert.Equal(t, models.CardTransactionTypeAccumulation, history.Items[0].Type)
	assert.Equal(t, "STP-TEST", history.Items[0].Reference)
	assert.Equal(t, int64(12), history.Items[0].TotalStamps)
}

func TestApplyDeltaRejectsUnbalancedAndOverdrawn(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	env.credit(t, client, business, 2)

	_, err := env.cards.ApplyDelta(context.Background(), models.CardDelta{
		ClientID: client, BusinessID: business,
		AvailableDelta: 1, TotalDelta: 2,
		Type: models.CardTransactionTypeBonus,
	})
	assert.ErrorIs(t, err, errors.ErrInvalidDelta)

	_, err = env.cards.ApplyDelta(context.Background(), models.CardDelta{
		ClientID: client, BusinessID: business,
		AvailableDelta: -3, UsedDelta: 3,
		Type: models.CardTransactionTypeExchange,
	})
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)

	_, err = env.cards.ApplyDelta(context.Background(), models.CardDelta{
		ClientID: newID(), BusinessID: business,
		AvailableDelta: -1, UsedDelta: 1,
		Type: models.CardTransactionTypeExchange,
	})
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)

	card := env.card(t, client, business)
	assert.Equal(t, int64(2), card.AvailableStamps)
	assert.Equal(t, int64(0), card.UsedStamps)
	assert.Equal(t, int64(2), card.TotalStamps)
}

// Every reachable card keeps total = available + used with all counters
// non-negative, and a rejected delta leaves the card untouched.
func TestCardInvariantHoldsForAnyDeltaSequence(t *testing.T) {
	env := newTestEnv(t)
	business := newID()

	rapid.Check(t, func(rt *rapid.T) {
		client := newID()
		var expected models.ClientCard

		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			var delta models.CardDelta
			value := rapid.Int64Range(0, 20).Draw(rt, "value")
			switch rapid.IntRange(0, 3).Draw(rt, "kind") {
			case 0:
				delta = models.CardDelta{AvailableDelta: value, TotalDelta: value, Type: models.CardTransactionTypeAccumulation}
			case 1:
				delta = models.CardDelta{AvailableDelta: -value, UsedDelta: value, Type: models.CardTransactionTypeExchange}
			case 2:
				delta = models.CardDelta{AvailableDelta: value, UsedDelta: -value, Type: models.CardTransactionTypeRefund}
			default:
				delta = models.CardDelta{
					AvailableDelta: rapid.Int64Range(-20, 20).Draw(rt, "available"),
					UsedDelta:      rapid.Int64Range(-20, 20).Draw(rt, "used"),
					TotalDelta:     rapid.Int64Range(-20, 20).Draw(rt, "total"),
					Type:           models.CardTransactionTypeBonus,
				}
			}
			delta.ClientID = client
			delta.BusinessID = business

			next := expected
			next.AvailableStamps += delta.AvailableDelta
			next.UsedStamps += delta.UsedDelta
			next.TotalStamps += delta.TotalDelta

			mutation, err := env.cards.ApplyDelta(context.Background(), delta)
			switch {
			case delta.TotalDelta != delta.AvailableDelta+delta.UsedDelta:
				if !errors.Is(err, errors.ErrInvalidDelta) {
					rt.Fatalf("unbalanced delta %+v: got %v", delta, err)
				}
			case next.AvailableStamps < 0:
				if !errors.Is(err, errors.ErrInsufficientBalance) {
					rt.Fatalf("overdraw %+v: got %v", delta, err)
				}
			case next.UsedStamps < 0 || next.TotalStamps < 0:
				if !errors.Is(err, errors.ErrInvalidDelta) {
					rt.Fatalf("negative counter %+v: got %v", delta, err)
				}
			default:
				if err != nil {
					rt.Fatalf("valid delta %+v: %v", delta, err)
				}
				expected = next
				if !mutation.Card.Balanced() {
					rt.Fatalf("unbalanced card %+v", mutation.Card)
				}
				if mutation.Card.Level != models.LevelForStamps(mutation.Card.TotalStamps) {
					rt.Fatalf("level %d for %d stamps", mutation.Card.Level, mutation.Card.TotalStamps)
				}
			}

			card, err := env.cards.GetCard(context.Background(), client, business)
			if errors.Is(err, errors.NewNotFoundError("")) {
				continue
			}
			if err != nil {
				rt.Fatalf("get card: %v", err)
			}
			if !card.Balanced() {
				rt.Fatalf("stored card unbalanced: %+v", card)
			}
			if card.AvailableStamps != expected.AvailableStamps || card.UsedStamps != expected.UsedStamps {
				rt.Fatalf("stored card %+v, expected %+v", card, expected)
			}
		}
	})
}

func TestJoinDisableAndRejoin(t *testing.T) {
	env := newTestEnv(t)
	client, business := newID(), newID()
	var associated int
	env.cards.OnAssociation(func(ctx context.Context, clientID, businessID uuid.UUID) { associated++ })

	card, created, err := env.cards.JoinBusiness(context.Background(), client, business)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(0), card.TotalStamps)
	assert.Equal(t, 1, associated)

	_, created, err = env.cards.JoinBusiness(context.Background(), client, business)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, associated)

	disabled, err := env.cards.DisableCard(context.Background(), client, business)
	require.NoError(t, err)
	assert.NotNil(t, disabled.DisabledAt)

	cards, err := env.cards.ListClientCards(context.Background(), client, nil)
	require.NoError(t, err)
	assert.Empty(t, cards.Items)

	card, created, err = env.cards.JoinBusiness(context.Background(), client, business)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, card.DisabledAt)
}

func TestJoinRespectsClientQuota(t *testing.T) {
	env := newTestEnv(t)
	env.gate.limits.MaxClients = 5
	env.gate.usage.Clients = 5

	_, _, err := env.cards.JoinBusiness(context.Background(), newID(), newID())
	assert.ErrorIs(t, err, errors.ErrQuotaExceeded)
}
