package services

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrize(position int, probability string, inventoryCap *int64, awarded int64) models.ScratchPrize {
	return models.ScratchPrize{
		ID:           uuid.New(),
		Name:         probability,
		Type:         models.PrizeTypeStamps,
		Value:        1,
		Probability:  decimal.RequireFromString(probability),
		InventoryCap: inventoryCap,
		AwardedCount: awarded,
		Position:     position,
	}
}

func TestDrawPrizeFrequenciesConverge(t *testing.T) {
	prizes := []models.ScratchPrize{
		testPrize(1, "0.5", nil, 0),
		testPrize(2, "0.3", nil, 0),
		testPrize(3, "0.2", nil, 0),
	}
	rng := rand.New(rand.NewPCG(7, 11))

	const draws = 200000
	counts := make(map[uuid.UUID]int)
	for i := 0; i < draws; i++ {
		prize := drawPrize(prizes, nil, rng.Int64N)
		require.NotNil(t, prize)
		counts[prize.ID]++
	}

	assert.InDelta(t, 0.5, float64(counts[prizes[0].ID])/draws, 0.01)
	assert.InDelta(t, 0.3, float64(counts[prizes[1].ID])/draws, 0.01)
	assert.InDelta(t, 0.2, float64(counts[prizes[2].ID])/draws, 0.01)
}

func TestDrawPrizeUsesPositionOrderedIntervals(t *testing.T) {
	// listed out of order on purpose
	prizes := []models.ScratchPrize{
		testPrize(2, "0.25", nil, 0),
		testPrize(1, "0.75", nil, 0),
	}
	fixed := func(v int64) func(int64) int64 {
		return func(n int64) int64 {
			require.Equal(t, int64(1000000), n)
			return v
		}
	}

	assert.Equal(t, prizes[1].ID, drawPrize(prizes, nil, fixed(0)).ID)
	assert.Equal(t, prizes[1].ID, drawPrize(prizes, nil, fixed(749999)).ID)
	assert.Equal(t, prizes[0].ID, drawPrize(prizes, nil, fixed(750000)).ID)
	assert.Equal(t, prizes[0].ID, drawPrize(prizes, nil, fixed(999999)).ID)
}

func TestDrawPrizeSkipsExhaustedExcludedAndWeightless(t *testing.T) {
	capped := int64(2)
	prizes := []models.ScratchPrize{
		testPrize(1, "0.4", &capped, 2),
		testPrize(2, "0.4", nil, 0),
		testPrize(3, "0", nil, 0),
		testPrize(4, "0.2", nil, 0),
	}
	excluded := map[uuid.UUID]bool{prizes[1].ID: true}

	for i := 0; i < 100; i++ {
		prize := drawPrize(prizes, excluded, rand.Int64N)
		require.NotNil(t, prize)
		assert.Equal(t, prizes[3].ID, prize.ID)
	}
}

func TestDrawPrizeWithEmptyPoolResolvesToNothing(t *testing.T) {
	capped := int64(1)
	prizes := []models.ScratchPrize{
		testPrize(1, "0", nil, 0),
		testPrize(2, "0.9", &capped, 1),
	}
	called := false
	prize := drawPrize(prizes, nil, func(n int64) int64 {
		called = true
		return 0
	})

	assert.Nil(t, prize)
	assert.False(t, called)
	assert.Nil(t, drawPrize(nil, nil, rand.Int64N))
}
