package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appInventory "github.com/Zhima-Mochi/minishop-orders/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/config"
	domainOrder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domainOutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	domainProduct "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/postgres"
	infraredis "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-orders/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-orders/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := zaplogger.New(cfg.LogFile,
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger.Zap())

	if err := run(cfg, logger); err != nil {
		logger.Error("service_failed", observability.F("error", err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// storage bundles the stores chosen by STORAGE.
type storage struct {
	uow      appOrder.UnitOfWork
	products domainProduct.Repository
	orders   domainOrder.Repository
	close    func()
}

func run(cfg config.Config, logger *zaplogger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := oteltrace.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Env)
	if err != nil {
		return err
	}

	tel := infraobs.New(
		oteltrace.New(cfg.ServiceName),
		logger,
		prometrics.StandardInstruments(prometrics.New(prometheus.DefaultRegisterer, "", "")),
	)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	idempotency, closeIdempotency := openIdempotency(cfg)

	// In-memory bus feeds in-process workers; Kafka, when configured, carries the same events out.
	bus := outbox.NewBus(logger)
	publishers := outbox.Publishers{bus}
	var kafkaPub *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = kafka.NewPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), logger)
		publishers = append(publishers, kafkaPub)
	}

	idGenerator := id.NewUUIDGenerator()
	levels := appInventory.WithStockLevels(appInventory.NewStockLevels(tel))
	catalogue := appInventory.NewService(store.products, idGenerator, tel, levels)
	if err := seedCatalogue(ctx, catalogue, cfg.SeedProducts); err != nil {
		return err
	}

	var publisher domainOutbox.Publisher = publishers
	placeOrder := appOrder.NewPlaceOrderUseCase(store.uow, idGenerator, tel,
		appOrder.WithPublisher(publisher),
		appOrder.WithIdempotency(idempotency),
		appOrder.WithPublishTimeout(cfg.PublishTimeout),
	)

	appInventory.NewStockWatcher(workerpresentation.NewSubscriber(bus, logger), cfg.LowStockThreshold, tel, levels).Start()
	bus.Start(ctx)

	handler := httppresentation.NewHandler(httppresentation.Deps{
		PlaceOrder: placeOrder,
		GetOrder:   appOrder.NewGetOrderUseCase(store.orders, tel),
		ListOrders: appOrder.NewListOrdersUseCase(store.orders, tel),
		Catalogue:  catalogue,
		Metrics:    promhttp.Handler(),
	}, tel)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("storage", cfg.Storage),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		logger.Info("http_server_stopped")
	}

	bus.Stop(shutdownCtx)
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Warn("kafka_close_failed", observability.F("error", err))
		}
	}
	closeIdempotency()
	store.close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer_shutdown_failed", observability.F("error", err))
	}
	return runErr
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.Storage != config.StoragePostgres {
		mem := memory.NewStore()
		return storage{uow: mem, products: mem.Products(), orders: mem.Orders(), close: func() {}}, nil
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return storage{}, err
	}
	return storage{
		uow:      postgres.NewUnitOfWork(pool),
		products: postgres.NewProductRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		close:    pool.Close,
	}, nil
}

func openIdempotency(cfg config.Config) (appOrder.IdempotencyStore, func()) {
	if cfg.RedisAddr == "" {
		return memory.NewIdempotencyStore(cfg.IdempotencyTTL), func() {}
	}
	client := infraredis.NewClient(cfg.RedisAddr)
	return infraredis.NewIdempotencyStore(client, cfg.IdempotencyTTL), func() { _ = client.Close() }
}

// seedCatalogue registers configured products; ones that already exist are left alone.
func seedCatalogue(ctx context.Context, catalogue *appInventory.Service, seeds []config.SeedProduct) error {
	for _, s := range seeds {
		_, err := catalogue.Register(ctx, appInventory.RegisterProductInput{
			ID:    s.ID,
			Name:  s.Name,
			Stock: s.Stock,
			Price: s.Price,
		})
		if err != nil && !errors.Is(err, appInventory.ErrConflict) {
			return fmt.Errorf("seed product %s: %w", s.ID, err)
		}
	}
	return nil
}
