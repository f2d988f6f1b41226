//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"
	"github.com/safatanc/loyalty-core/internal/app/deliveries"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/services"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
)

// Infrastructure providers
var infrastructureSet = wire.NewSet(
	infrastructures.NewDatabase,
	infrastructures.NewRedisClient,
	infrastructures.NewValidator,
	infrastructures.NewMetrics,
	wire.Bind(new(middlewares.RateLimiter), new(*middlewares.RedisRateLimiter)),
	middlewares.NewRedisRateLimiter,
)

// Service providers
var serviceSet = wire.NewSet(
	services.NewTxRunner,
	services.NewCodeRegistry,
	services.NewAuditService,
	wire.Bind(new(services.EntitlementGate), new(*services.RedisEntitlementGate)),
	services.NewRedisEntitlementGate,
	services.NewEntitlementService,
	services.NewCardService,
	services.NewStampService,
	services.NewRewardService,
	services.NewRewardRedemptionService,
	services.NewScratchService,
	services.NewMaintenanceService,
)

// Middleware providers
var middlewareSet = wire.NewSet(
	middlewares.NewIdentityMiddleware,
	middlewares.NewRateLimitMiddleware,
)

// Handler providers
var handlerSet = wire.NewSet(
	deliveries.NewHealthHandler,
	deliveries.NewStampHandler,
	deliveries.NewCardHandler,
	deliveries.NewRewardHandler,
	deliveries.NewRedemptionHandler,
	deliveries.NewScratchHandler,
	deliveries.NewAuditHandler,
	wire.Struct(new(Application), "*"),
)

// InitializeApplication initializes the application with all its dependencies
func InitializeApplication(config *infrastructures.AppConfig) (*Application, error) {
	wire.Build(
		infrastructureSet,
		serviceSet,
		middlewareSet,
		handlerSet,
	)
	return &Application{}, nil
}
