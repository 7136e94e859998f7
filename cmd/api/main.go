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

	"github.com/medlan/pharmacy-pos/internal/application/auth"
	"github.com/medlan/pharmacy-pos/internal/application/events"
	"github.com/medlan/pharmacy-pos/internal/application/pos"
	"github.com/medlan/pharmacy-pos/internal/application/receiving"
	"github.com/medlan/pharmacy-pos/internal/application/scan"
	"github.com/medlan/pharmacy-pos/internal/application/transfer"
	infraledger "github.com/medlan/pharmacy-pos/internal/infrastructure/ledger"
	infrapdf "github.com/medlan/pharmacy-pos/internal/infrastructure/pdf"
	"github.com/medlan/pharmacy-pos/internal/infrastructure/postgres"
	httpRouter "github.com/medlan/pharmacy-pos/internal/interfaces/http"
	"github.com/medlan/pharmacy-pos/pkg/config"
	"github.com/medlan/pharmacy-pos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
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

	// Adaptadores de persistencia local
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	heldRepo := postgres.NewHeldSaleRepository(pool)
	grnRepo := postgres.NewGRNRepository(pool)
	transferRepo := postgres.NewStockTransferRepository(pool)

	// Cliente del Ledger Service (stock por sucursal, ventas, escaneos, overrides)
	ledgerClient := infraledger.NewClient(cfg.Ledger, log.Zerolog())

	// Bus de invalidación de vistas de lectura
	bus := events.NewBus()
	bus.Subscribe(func(views ...events.ReadView) {
		for _, v := range views {
			log.Debug().Str("view", string(v)).Msg("vista de lectura invalidada")
		}
	})

	// Casos de uso
	cartSvc := pos.NewCartService(sessionRepo, heldRepo, ledgerClient, bus)
	grnUC := receiving.NewGRNUseCase(grnRepo, ledgerClient, bus, log.Zerolog())
	transferUC := transfer.NewUseCase(transferRepo, ledgerClient, bus, log.Zerolog())
	scanGuard := scan.NewGuard(
		ledgerClient, ledgerClient, cartSvc,
		cfg.Scan.MinCodeLength,
		time.Duration(cfg.Scan.MaxKeyGapMS)*time.Millisecond,
		log.Zerolog(),
	)
	authUC := auth.NewUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	receipts := infrapdf.NewReceiptGenerator(cfg.App.Name)

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
		Title:    "Pharmacy POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		CartSvc:    cartSvc,
		Receipts:   receipts,
		GRNUC:      grnUC,
		TransferUC: transferUC,
		ScanGuard:  scanGuard,
		JWTSecret:  cfg.JWT.Secret,
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
