package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGate struct {
	mu     sync.Mutex
	limits models.PlanLimits
	usage  models.EntitlementUsage
	err    error
}

func newFakeGate() *fakeGate {
	return &fakeGate{
		limits: models.PlanLimits{
			MaxStampsPerPeriod: models.Unlimited,
			MaxActiveRewards:   models.Unlimited,
			MaxClients:         models.Unlimited,
		},
	}
}

func (g *fakeGate) CurrentUsage(ctx context.Context, businessID uuid.UUID, period string) (*models.EntitlementUsage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	usage := g.usage
	usage.Period = period
	return &usage, nil
}

func (g *fakeGate) PlanLimits(ctx context.Context, businessID uuid.UUID) (*models.PlanLimits, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	limits := g.limits
	return &limits, nil
}

type testEnv struct {
	db           *gorm.DB
	clock        *testClock
	gate         *fakeGate
	config       *infrastructures.AppConfig
	metrics      *infrastructures.Metrics
	tx           *TxRunner
	registry     *CodeRegistry
	audit        *AuditService
	entitlements *EntitlementService
	cards        *CardService
	stamps       *StampService
	rewards      *RewardService
	redemptions  *RewardRedemptionService
	scratch      *ScratchService
	maintenance  *MaintenanceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "loyalty.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	env := &testEnv{
		db:    db,
		clock: &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		gate:  newFakeGate(),
		config: &infrastructures.AppConfig{
			RetryMaxAttempts:     8,
			RetryInitialInterval: time.Millisecond,
			RetryMaxInterval:     5 * time.Millisecond,
			RedemptionCodeTTL:    24 * time.Hour,
		},
		metrics: infrastructures.NewMetrics(),
	}
	validator := infrastructures.NewValidator()

	env.tx = NewTxRunner(db, env.config, env.metrics)
	env.tx.now = env.clock.Now
	env.registry = NewCodeRegistry(db)
	env.audit = NewAuditService(db)
	env.entitlements = NewEntitlementService(env.gate, env.tx)
	env.cards = NewCardService(db, validator, env.tx, env.entitlements)
	env.stamps = NewStampService(validator, env.tx, env.registry, env.cards, env.entitlements, env.audit, env.metrics)
	env.rewards = NewRewardService(db, validator, env.tx, env.entitlements, env.audit)
	env.redemptions = NewRewardRedemptionService(db, validator, env.config, env.tx, env.registry, env.cards, env.audit, env.metrics)
	env.scratch = NewScratchService(db, validator, env.tx, env.registry, env.cards, env.audit, env.metrics)
	env.maintenance = NewMaintenanceService(db, env.tx)
	return env
}

func (e *testEnv) issueStamp(t *testing.T, businessID uuid.UUID, value int64) *models.StampCode {
	t.Helper()
	code, err := e.stamps.IssueStamp(context.Background(), &models.IssueStampRequest{
		BusinessID: businessID.String(),
		Value:      value,
		Type:       models.StampTypePurchase,
	})
	require.NoError(t, err)
	return code
}

func (e *testEnv) credit(t *testing.T, clientID, businessID uuid.UUID, value int64) *models.ClientCard {
	t.Helper()
	code := e.issueStamp(t, businessID, value)
	result, err := e.stamps.RedeemStamp(context.Background(), &models.RedeemStampRequest{
		Code:     code.Code,
		ClientID: clientID.String(),
	})
	require.NoError(t, err)
	return result.Card
}

func (e *testEnv) createReward(t *testing.T, businessID uuid.UUID, cost int64, stock *int64) *models.Reward {
	t.Helper()
	reward, err := e.rewards.CreateReward(context.Background(), &models.RewardCreateRequest{
		BusinessID: businessID.String(),
		Name:       "Free coffee",
		StampsCost: cost,
		Stock:      stock,
	})
	require.NoError(t, err)
	return reward
}

func (e *testEnv) card(t *testing.T, clientID, businessID uuid.UUID) *models.ClientCard {
	t.Helper()
	card, err := e.cards.GetCard(context.Background(), clientID, businessID)
	require.NoError(t, err)
	return card
}

func (e *testEnv) createCampaign(t *testing.T, businessID uuid.UUID, policy models.IssuancePolicy, maxPerClient int, prizes ...models.ScratchPrizeRequest) *models.ScratchCampaign {
	t.Helper()
	now := e.clock.Now()
	campaign, err := e.scratch.CreateCampaign(context.Background(), &models.ScratchCampaignCreateRequest{
		BusinessID:        businessID.String(),
		Name:              "Spring scratch",
		StartDate:         now.Add(-time.Hour),
		EndDate:           now.Add(7 * 24 * time.Hour),
		IssuancePolicy:    policy,
		MaxCardsPerClient: maxPerClient,
		Prizes:            prizes,
	})
	require.NoError(t, err)
	return campaign
}

func prizeRequest(name string, prizeType models.PrizeType, value int64, probability string, inventoryCap *int64) models.ScratchPrizeRequest {
	return models.ScratchPrizeRequest{
		Name:         name,
		Type:         prizeType,
		Value:        value,
		Probability:  decimal.RequireFromString(probability),
		InventoryCap: inventoryCap,
	}
}

func ptr[T any](v T) *T {
	return &v
}
