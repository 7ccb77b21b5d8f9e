package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/application/traceability"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
	"github.com/jhoicas/stock-allocation/internal/infrastructure/memory"
	"github.com/jhoicas/stock-allocation/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-allocation/internal/interfaces/http"
	"github.com/jhoicas/stock-allocation/pkg/config"
	"github.com/jhoicas/stock-allocation/pkg/logger"
)

// backend repositorios del driver de almacenamiento elegido.
type backend struct {
	txRunner  stock.TxRunner
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
	orders    repository.OrderRepository
	models    repository.ModelCatalog
	prices    repository.PriceCatalog
	close     func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &backend{
			txRunner:  store,
			stocks:    store.Stocks(),
			movements: store.Movements(),
			orders:    store.Orders(),
			models:    store.Models(),
			prices:    store.Prices(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &backend{
		txRunner:  postgres.NewTxRunner(pool),
		stocks:    postgres.NewStockRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
		models:    postgres.NewModelRepository(pool),
		prices:    postgres.NewPriceRepository(pool),
		close:     pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer be.close()

	recorder := stock.NewMovementRecorder(be.models, be.prices, cfg.Allocation.DefaultActor, log.Component("recorder"))
	allocSvc := stock.NewAllocationService(be.txRunner, recorder, stock.NewOrderProjector(), log.Component("allocation"))
	orderUC := stock.NewOrderUseCase(allocSvc, be.txRunner, be.stocks, be.orders, be.models, cfg.Allocation.Parallelism, log.Component("orders"))
	stockUC := stock.NewStockUseCase(be.txRunner, be.stocks, be.models)
	traceUC := traceability.NewUseCase(be.movements, be.stocks)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrderUC:        orderUC,
		StockUC:        stockUC,
		Allocation:     allocSvc,
		TraceabilityUC: traceUC,
		JWTSecret:      cfg.JWT.Secret,
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
