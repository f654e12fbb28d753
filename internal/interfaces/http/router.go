package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/almacen-io/almacen-api/internal/application/auth"
	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/application/usecase"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ProductUC   *usecase.ProductUseCase
	WarehouseUC *usecase.WarehouseUseCase
	DashboardUC *usecase.DashboardUseCase
	DocumentUC  *inventory.DocumentUseCase
	StockUC     *inventory.StockQueryUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	stockHandler := NewStockHandler(deps.StockUC)

	// Products (protegido; crear/editar requiere admin o bodeguero)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/stock", stockHandler.ProductStock)
	products.Post("/", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Create)
	products.Put("/:id", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Update)

	// Warehouses y locations (protegido; crear requiere admin)
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Post("/", RequireRole(entity.RoleAdmin), warehouseHandler.Create)
	locations := protected.Group("/locations")
	locations.Get("/", warehouseHandler.ListLocations)
	locations.Post("/", RequireRole(entity.RoleAdmin), warehouseHandler.CreateLocation)

	// Movement documents (protegido)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Put("/:id/items", documentHandler.UpdateItems)
	documents.Post("/:id/transition", documentHandler.Transition)

	// Stock queries (protegido)
	stock := protected.Group("/stock")
	stock.Get("/balance", stockHandler.GetBalance)
	stock.Get("/low", stockHandler.LowStock)
	protected.Get("/ledger", stockHandler.History)

	// Dashboard (protegido)
	dashboard := protected.Group("/dashboard")
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/kpis", dashboardHandler.GetKPIs)
}
