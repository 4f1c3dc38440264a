package handler

import (
	"biro-server/internal/middleware"
	"biro-server/internal/service"
	"biro-server/internal/ws"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services is everything the routes delegate to.
type Services struct {
	Auth         service.AuthService
	Sessions     service.SessionManager
	Customers    service.CustomerService
	ProductTypes service.ProductTypeService
	Products     service.ProductService
	Stats        service.StatsService
}

// SetupRoutes mounts the API under /api/v1 and the event stream on /ws.
func SetupRoutes(app *fiber.App, svc Services, hub *ws.Hub, log *zap.SugaredLogger) {
	authHandler := NewAuthHandler(svc.Auth, log)
	customerHandler := NewCustomerHandler(svc.Customers, log)
	productTypeHandler := NewProductTypeHandler(svc.ProductTypes, log)
	productHandler := NewProductHandler(svc.Products, log)
	statsHandler := NewStatsHandler(svc.Stats)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Get("/me", middleware.RequireSession(svc.Sessions, authHandler.Fail), authHandler.Me)
	auth.Post("/ws-ticket", middleware.RequireSession(svc.Sessions, authHandler.Fail), authHandler.WSTicket)

	// ============ PROTECTED ROUTES ============
	crud := middleware.RequireSession(svc.Sessions, CrudFail(log))

	api.Get("/customers", crud, customerHandler.GetCustomers)
	api.Post("/customers", crud, customerHandler.CreateCustomer)
	api.Put("/customers/:id", crud, customerHandler.UpdateCustomer)
	api.Delete("/customers/:id", crud, customerHandler.DeleteCustomer)

	api.Get("/product-types", crud, productTypeHandler.GetProductTypes)
	api.Post("/product-types", crud, productTypeHandler.CreateProductType)

	api.Post("/products/reserve", middleware.RequireSession(svc.Sessions, productHandler.ReserveFail), productHandler.ReserveProduct)
	api.Get("/products", crud, productHandler.GetProducts)
	api.Put("/products/:id", crud, productHandler.UpdateProduct)
	api.Delete("/products/:id", crud, productHandler.DeleteProduct)

	api.Get("/stats", middleware.RequireSession(svc.Sessions, authHandler.Fail), statsHandler.GetStats)

	// WebSocket Route
	app.Use("/ws", middleware.RequireWSTicket(svc.Auth))
	app.Get("/ws", Subscribe(hub))
}
