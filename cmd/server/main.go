package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/database"
	"github.com/example/oilmart/internal/handlers"
	"github.com/example/oilmart/internal/routes"
	"github.com/example/oilmart/internal/services"
)

func main() {
	cfg := config.Load()

	zapLogger := newLogger(cfg)
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zap.S().Fatalf("database init failed: %v", err)
	}

	if err := services.NewIdentityService(db).EnsureAdminAccount(cfg); err != nil {
		zap.S().Fatalf("admin bootstrap failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handlers.NewErrorHandler(cfg),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg)

	zap.S().Infow("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zap.S().Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		zapLogger *zap.Logger
		err       error
	)
	if cfg.IsDevelopment() {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return zapLogger
}
