package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/kvitka/internal/accounts"
	"github.com/example/kvitka/internal/auth"
	"github.com/example/kvitka/internal/bonus"
	"github.com/example/kvitka/internal/config"
	"github.com/example/kvitka/internal/database"
	"github.com/example/kvitka/internal/infra"
	"github.com/example/kvitka/internal/orders"
	"github.com/example/kvitka/internal/routes"
	"github.com/example/kvitka/internal/scheduler"
	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	rdb, err := infra.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}

	accountStore := store.NewGormStore(db)
	locks := store.NewKeyedMutex()

	smsService := services.NewSMSService(services.SMSConfig{
		TokenURL:     cfg.SMSTokenURL,
		SendURL:      cfg.SMSSendURL,
		ClientID:     cfg.SMSClientID,
		ClientSecret: cfg.SMSClientSecret,
		From:         cfg.SMSFrom,
	})
	orderClient := services.NewOrderClient(cfg.OrderServiceURL)

	accountsSvc := accounts.NewService(accountStore, smsService, locks)
	authSvc := auth.NewService(accountStore, cfg.JWTSecret, cfg.TokenExpires)
	ordersSvc := orders.NewService(accountStore, orderClient, locks)
	bonusSvc := bonus.NewService(accountStore, locks)

	app := fiber.New(fiber.Config{
		AppName: "Kvitka Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, routes.Deps{
		Cfg:      cfg,
		Accounts: accountsSvc,
		Auth:     authSvc,
		Orders:   ordersSvc,
		Bonus:    bonusSvc,
	})

	if err := smsService.WarmUp(context.Background()); err != nil {
		log.Printf("SMS token warm-up failed: %v", err)
	}

	sweep := scheduler.New(bonusSvc, rdb, cfg.SweepInterval)
	go sweep.Run(context.Background())

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
