package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/config"
	"github.com/example/techmarket/internal/handlers"
	"github.com/example/techmarket/internal/middleware"
	"github.com/example/techmarket/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, log *logrus.Logger) {
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, log)
	publisher := services.NewNotificationService(db, telegram, log)
	inventory := services.NewInventoryService(db, log)
	orderRepo := services.NewOrderRepository(db)
	orderService := services.NewOrderService(orderRepo, inventory, publisher, log)

	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db)
	orderHandler := handlers.NewOrderHandler(orderService)
	profileHandler := handlers.NewProfileHandler(db)
	adminHandler := handlers.NewAdminHandler(db)
	reviewHandler := handlers.NewReviewHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog routes
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/types", productHandler.ListTypes)
	products.Get("/:id", productHandler.GetProduct)

	reviews := api.Group("/reviews")
	reviews.Get("/product/:id", reviewHandler.ListByProduct)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	orders := protected.Group("/orders")
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/user/:id", orderHandler.ListOrdersByUser)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Delete("/:id", orderHandler.CancelOrder) // legacy cancel route
	orders.Get("/:id/can-cancel", orderHandler.CanCancel)

	protected.Post("/reviews", reviewHandler.CreateOrUpdateReview)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)

	protected.Get("/notifications", notificationHandler.List)
	protected.Put("/notifications/:id/read", notificationHandler.MarkRead)

	// Admin routes. AdminOnly is attached per route so the catch-all
	// GET /orders/:id below stays reachable for regular users.
	adminOnly := middleware.AdminOnly()

	orders.Get("/all", adminOnly, orderHandler.ListAllOrders)
	orders.Get("/revenue", adminOnly, orderHandler.Revenue)
	orders.Put("/:id/status", adminOnly, orderHandler.UpdateStatus)
	orders.Post("/delete-many", adminOnly, orderHandler.DeleteMany)

	protected.Post("/products", adminOnly, productHandler.CreateProduct)
	protected.Put("/products/:id", adminOnly, productHandler.UpdateProduct)
	protected.Delete("/products/:id", adminOnly, productHandler.DeleteProduct)
	protected.Post("/products/delete-many", adminOnly, productHandler.DeleteManyProducts)

	protected.Get("/users", adminOnly, profileHandler.ListUsers)
	protected.Get("/admin/dashboard", adminOnly, adminHandler.DashboardStats)

	// Keep this last so /orders/all and /orders/revenue match first.
	orders.Get("/:id", orderHandler.GetOrder)
}
