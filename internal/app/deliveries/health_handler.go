package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
)

type HealthHandler struct {
	metrics *infrastructures.Metrics
}

func NewHealthHandler(metrics *infrastructures.Metrics) *HealthHandler {
	return &HealthHandler{
		metrics: metrics,
	}
}

func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.GetHealth)
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))
}

func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	return pkg.SuccessResponse(c, "loyalty-core")
}
