package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/kvitka/internal/accounts"
	"github.com/example/kvitka/internal/auth"
	"github.com/example/kvitka/internal/bonus"
	"github.com/example/kvitka/internal/config"
	"github.com/example/kvitka/internal/handlers"
	"github.com/example/kvitka/internal/middleware"
	"github.com/example/kvitka/internal/orders"
)

// Deps carries the engines the HTTP layer exposes.
type Deps struct {
	Cfg      *config.Config
	Accounts *accounts.Service
	Auth     *auth.Service
	Orders   *orders.Service
	Bonus    *bonus.Service
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Auth)
	profileHandler := handlers.NewProfileHandler(deps.Accounts)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	bonusHandler := handlers.NewBonusHandler(deps.Bonus)

	api := app.Group("/api")

	// Public auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/accept-phone", authHandler.AcceptPhone)
	authGroup.Post("/resend-code", authHandler.ResendCode)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/verify", authHandler.Verify)

	// Routes below require a valid bearer token.
	protected := api.Group("", middleware.AuthMiddleware(deps.Cfg))

	protected.Post("/change/data", profileHandler.ChangeData)
	protected.Post("/change/delivery", profileHandler.ChangeDelivery)
	protected.Post("/change/password", profileHandler.ChangePassword)

	protected.Post("/create/order", orderHandler.CreateOrder)

	protected.Post("/bonus/pending", bonusHandler.RecordPending)
	protected.Post("/bonus/activate", bonusHandler.Activate)
}
