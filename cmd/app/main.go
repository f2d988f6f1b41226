package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/safatanc/loyalty-core/injector"
	"github.com/safatanc/loyalty-core/internal/app/services"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
)

func main() {
	config := infrastructures.LoadConfig()
	logger := infrastructures.NewLogger(config)

	app, err := injector.InitializeApplication(config)
	if err != nil {
		logger.Fatalf("Failed to initialize application: %v", err)
	}

	// Fiber configuration
	router := fiber.New(fiber.Config{
		ReadTimeout:  time.Second * 60,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})

	// Add CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, X-Business-ID, X-Client-ID, X-Staff-ID",
		AllowMethods:  "GET, POST, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:        300,
	}))

	app.RegisterRoutes(router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runSweeper(ctx, app.MaintenanceService, config.SweepInterval)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := router.ShutdownWithTimeout(30 * time.Second); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
		}
	}()

	if err := router.Listen(":" + config.AppPort); err != nil {
		logger.Fatal(err)
	}
}

// runSweeper expires stale codes, redemptions and tickets until ctx ends.
func runSweeper(ctx context.Context, maintenance *services.MaintenanceService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := maintenance.Sweep(ctx); err != nil {
				logrus.WithError(err).Warn("maintenance sweep failed")
			}
		}
	}
}
