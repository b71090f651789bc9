package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	shopserver "github.com/tshirtshop/commerce-api/go"

	catalogclient "github.com/tshirtshop/commerce-api/internal/clients/http/catalog"
	paymentclient "github.com/tshirtshop/commerce-api/internal/clients/http/payment"
	shippingclient "github.com/tshirtshop/commerce-api/internal/clients/http/shipping"
	taxclient "github.com/tshirtshop/commerce-api/internal/clients/http/tax"

	cartcache "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/cache"
	cartmemory "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/memory"
	cartobs "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/observability"
	cartpostgres "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/persistence/postgres"
	cartapp "github.com/tshirtshop/commerce-api/internal/domains/cart/application"
	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"

	ordermemory "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/memory"
	orderobs "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/persistence/postgres"
	orderworkflows "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/workflows"
	orderapp "github.com/tshirtshop/commerce-api/internal/domains/orders/application"
	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"

	platformmigrations "github.com/tshirtshop/commerce-api/internal/platform/migrations"
	platformobservability "github.com/tshirtshop/commerce-api/internal/platform/observability"
	platformpostgres "github.com/tshirtshop/commerce-api/internal/platform/postgres"
	"github.com/tshirtshop/commerce-api/internal/shared/auth"
)

// Run boots the commerce HTTP API with observability, repositories,
// collaborator clients, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "commerce-api"
	cfg := LoadConfig()
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := platformmigrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cartStore := buildCartStore(db, logger)
	catalog := buildCatalog(cfg, logger)

	var cartOpts []cartapp.Option
	var snapshotCache cartports.SnapshotCache
	if redisClient != nil {
		snapshotCache = cartcache.NewRedisCache(redisClient)
		cartOpts = append(cartOpts, cartapp.WithSnapshotCache(snapshotCache))
	}
	cartService := cartobs.New(
		cartapp.NewService(cartStore, catalog, cartOpts...),
		cartobs.WithLogger(logger),
		cartobs.WithTracer(instruments.Tracer("internal.cart.application")),
		cartobs.WithMeter(instruments.Meter("internal.cart.application")),
	)

	orderRepo, chargeKeys := buildOrderPersistence(db, logger)
	gateway := buildPaymentGateway(cfg, logger)
	coordinator := orderapp.NewCoordinator(orderRepo, chargeKeys, gateway)

	var orchestrator orderports.ChargeOrchestrator = orderworkflows.NewInlineChargeWorkflows(coordinator)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, charging inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orchestrator = orderworkflows.NewTemporalChargeWorkflows(temporalClient)
		logger.Info("Temporal charge workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	var orderOpts []orderapp.Option
	if snapshotCache != nil {
		orderOpts = append(orderOpts, orderapp.WithCartCache(snapshotCache))
	}
	tax, shipping := buildTaxAndShipping(cfg, logger)
	orderService := orderobs.New(
		orderapp.NewService(orderRepo, cartStore, catalog, tax, shipping, orchestrator, orderOpts...),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	verifier := auth.NewVerifier(buildSessionStore(redisClient))

	handlers := shopserver.ApiHandleFunctions{
		CartAPI:   shopserver.NewCartAPI(cartService),
		OrdersAPI: shopserver.NewOrdersAPI(orderService, verifier),
	}

	router := shopserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("Commerce API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("Commerce API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildCartStore(db *gorm.DB, logger *slog.Logger) cartports.Store {
	if db == nil {
		return cartmemory.NewStore()
	}
	logger.Info("cart store configured with postgres")
	return cartpostgres.NewStore(db)
}

func buildCatalog(cfg Config, logger *slog.Logger) cartports.Catalog {
	if cfg.CatalogBaseURL == "" {
		logger.Warn("CATALOG_BASE_URL not set, using seeded in-memory catalog")
		return cartmemory.NewCatalog()
	}
	c, err := catalogclient.NewClient(cfg.CatalogBaseURL, nil)
	if err != nil {
		logger.Warn("invalid catalog base URL, using seeded in-memory catalog", slog.String("error", err.Error()))
		return cartmemory.NewCatalog()
	}
	return c
}

func buildOrderPersistence(db *gorm.DB, logger *slog.Logger) (orderports.Repository, orderports.ChargeKeyStore) {
	if db == nil {
		return ordermemory.NewRepository(), ordermemory.NewChargeKeyStore()
	}
	logger.Info("order repository configured with postgres")
	return orderpostgres.NewRepository(db), orderpostgres.NewChargeKeyStore(db)
}

func buildPaymentGateway(cfg Config, logger *slog.Logger) orderports.PaymentGateway {
	if cfg.PaymentBaseURL == "" {
		logger.Warn("PAYMENT_BASE_URL not set, captures are simulated in memory")
		return ordermemory.NewGateway()
	}
	c, err := paymentclient.NewClient(cfg.PaymentBaseURL, nil)
	if err != nil {
		logger.Warn("invalid payment base URL, captures are simulated in memory", slog.String("error", err.Error()))
		return ordermemory.NewGateway()
	}
	return c
}

func buildTaxAndShipping(cfg Config, logger *slog.Logger) (orderports.TaxService, orderports.ShippingService) {
	var tax orderports.TaxService = ordermemory.NewTaxService()
	if cfg.TaxBaseURL != "" {
		if c, err := taxclient.NewClient(cfg.TaxBaseURL, nil); err != nil {
			logger.Warn("invalid tax base URL, using in-memory rates", slog.String("error", err.Error()))
		} else {
			tax = c
		}
	}
	var shipping orderports.ShippingService = ordermemory.NewShippingService()
	if cfg.ShippingBaseURL != "" {
		if c, err := shippingclient.NewClient(cfg.ShippingBaseURL, nil); err != nil {
			logger.Warn("invalid shipping base URL, using in-memory costs", slog.String("error", err.Error()))
		} else {
			shipping = c
		}
	}
	return tax, shipping
}

func buildSessionStore(redisClient *redis.Client) auth.SessionStore {
	if redisClient != nil {
		return auth.NewRedisSessionStore(redisClient, 0)
	}
	return auth.NewMemorySessionStore()
}

func connectRedis(cfg Config, logger *slog.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, cart snapshot cache and redis sessions disabled")
		return nil
	}
	c := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, cart snapshot cache and redis sessions disabled", slog.String("error", err.Error()))
		_ = c.Close()
		return nil
	}
	logger.Info("redis cache enabled", slog.String("addr", cfg.RedisAddr))
	return c
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
