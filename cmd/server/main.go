package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/example/techmarket/internal/config"
	"github.com/example/techmarket/internal/database"
	"github.com/example/techmarket/internal/routes"
	"github.com/example/techmarket/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	app := fiber.New(fiber.Config{
		AppName: "Techmarket Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, log)

	reconciler := services.NewStockReconciler(db, log)
	if err := reconciler.Start(cfg.ReconcileSpec); err != nil {
		log.WithError(err).Fatal("failed to start stock reconciler")
	}
	defer reconciler.Stop()

	log.Infof("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.WithError(err).Fatal("fiber.Listen error")
	}
}
