package injector

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/loyalty-core/internal/app/deliveries"
	"github.com/safatanc/loyalty-core/internal/app/middlewares"
	"github.com/safatanc/loyalty-core/internal/app/services"
)

// Application represents the main application container for loyalty-core
type Application struct {
	HealthHandler       *deliveries.HealthHandler
	StampHandler        *deliveries.StampHandler
	CardHandler         *deliveries.CardHandler
	RewardHandler       *deliveries.RewardHandler
	RedemptionHandler   *deliveries.RedemptionHandler
	ScratchHandler      *deliveries.ScratchHandler
	AuditHandler        *deliveries.AuditHandler
	RateLimitMiddleware *middlewares.RateLimitMiddleware
	MaintenanceService  *services.MaintenanceService
}

// RegisterRoutes registers all application routes using a Fiber router
func (app *Application) RegisterRoutes(router fiber.Router) {
	app.HealthHandler.RegisterRoutes(router)

	api := router.Group("", app.RateLimitMiddleware.LimitByIP(middlewares.PublicLimit))
	app.StampHandler.RegisterRoutes(api)
	app.CardHandler.RegisterRoutes(api)
	app.RewardHandler.RegisterRoutes(api)
	app.RedemptionHandler.RegisterRoutes(api)
	app.ScratchHandler.RegisterRoutes(api)
	app.AuditHandler.RegisterRoutes(api)
}
