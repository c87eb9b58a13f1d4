package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/handlers"
	"github.com/example/oilmart/internal/middleware"
	"github.com/example/oilmart/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db, cfg)
	identityService := services.NewIdentityService(db)

	productHandler := handlers.NewProductHandler(catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	userHandler := handlers.NewUserHandler(identityService, orderService)
	adminHandler := handlers.NewAdminHandler(db, cfg, identityService, orderService)

	api := app.Group("/api")

	// Public catalog. The search alias must precede the :id route.
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/search", productHandler.SearchProducts)
	products.Get("/:id", productHandler.GetProduct)

	// Public checkout and tracking
	orders := api.Group("/orders")
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/track/:trackingNumber", orderHandler.TrackOrder)

	// Storefront accounts
	users := api.Group("/users")
	users.Post("/", userHandler.Register)
	users.Get("/:id", userHandler.GetProfile)
	users.Put("/:id", userHandler.UpdateProfile)
	users.Get("/:id/orders", userHandler.ListOrders)
	users.Get("/:id/favorites", userHandler.ListFavorites)
	users.Post("/:id/favorites", userHandler.AddFavorite)
	users.Delete("/:id/favorites/:productId", userHandler.RemoveFavorite)

	// Back office
	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	protected := admin.Group("", middleware.AdminAuth(cfg, db))
	protected.Post("/logout", adminHandler.Logout)
	protected.Get("/status", adminHandler.Status)
	protected.Get("/stats", adminHandler.Stats)

	protected.Post("/products", productHandler.CreateProduct)
	protected.Put("/products/:id", productHandler.UpdateProduct)
	protected.Delete("/products/:id", productHandler.DeleteProduct)

	protected.Get("/orders", adminHandler.ListOrders)
	protected.Get("/orders/:id", adminHandler.GetOrder)
	protected.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
}
