package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/almacen-io/almacen-api/internal/application/auth"
	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/application/usecase"
	"github.com/almacen-io/almacen-api/internal/infrastructure/postgres"
	httpRouter "github.com/almacen-io/almacen-api/internal/interfaces/http"
	"github.com/almacen-io/almacen-api/pkg/config"
	"github.com/almacen-io/almacen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	docRepo := postgres.NewDocumentRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeoutMS)

	engine := inventory.NewPostingEngine()
	documentUC := inventory.NewDocumentUseCase(txRunner, docRepo, productRepo, locationRepo, engine)
	stockUC := inventory.NewStockQueryUseCase(stockRepo, ledgerRepo, productRepo)
	productUC := usecase.NewProductUseCase(productRepo, documentUC)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo, locationRepo)
	dashboardUC := usecase.NewDashboardUseCase(productRepo, stockRepo, docRepo)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   productUC,
		WarehouseUC: warehouseUC,
		DashboardUC: dashboardUC,
		DocumentUC:  documentUC,
		StockUC:     stockUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
