package models

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestLevelForStampsIsMonotonic(t *testing.T) {
	assert.Equal(t, 1, LevelForStamps(0))
	assert.Equal(t, 1, LevelForStamps(9))
	assert.Equal(t, 2, LevelForStamps(10))
	assert.Equal(t, 3, LevelForStamps(25))
	assert.Equal(t, 5, LevelForStamps(1000))

	prev := LevelForStamps(0)
	for total := int64(1); total <= 200; total++ {
		level := LevelForStamps(total)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestRewardRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	assert.True(t, (&Reward{Active: true, Stock: UnlimitedStock}).Redeemable(now))
	assert.True(t, (&Reward{Active: true, Stock: 2}).Redeemable(now))
	assert.False(t, (&Reward{Active: true, Stock: 0}).Redeemable(now))
	assert.False(t, (&Reward{Active: false, Stock: 5}).Redeemable(now))
	assert.False(t, (&Reward{Active: true, Stock: 5, ExpiresAt: &past}).Redeemable(now))
}

func TestCampaignOpenAndPrizeAvailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	campaign := &ScratchCampaign{Status: CampaignStatusActive, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}
	assert.True(t, campaign.Open(now))
	assert.False(t, campaign.Open(now.Add(2*time.Hour)))
	campaign.Status = CampaignStatusInactive
	assert.False(t, campaign.Open(now))

	capped := int64(2)
	assert.True(t, (&ScratchPrize{InventoryCap: &capped, AwardedCount: 1}).Available())
	assert.False(t, (&ScratchPrize{InventoryCap: &capped, AwardedCount: 2}).Available())
	assert.True(t, (&ScratchPrize{AwardedCount: 1000}).Available())
}

func TestPrizeProbabilityColumnHoldsMaximumWeight(t *testing.T) {
	parsed, err := schema.Parse(&ScratchPrize{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := parsed.LookUpField("Probability")
	require.NotNil(t, field)

	var precision, scale int
	_, err = fmt.Sscanf(field.TagSettings["TYPE"], "decimal(%d,%d)", &precision, &scale)
	require.NoError(t, err)

	// the request accepts weights up to 1000, which needs four integer digits
	assert.GreaterOrEqual(t, precision-scale, 4)
	assert.Equal(t, 6, scale)
}
