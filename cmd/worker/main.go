package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	paymentclient "github.com/tshirtshop/commerce-api/internal/clients/http/payment"
	ordermemory "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/memory"
	orderpostgres "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/persistence/postgres"
	orderapp "github.com/tshirtshop/commerce-api/internal/domains/orders/application"
	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
	paymentworkflows "github.com/tshirtshop/commerce-api/internal/durable/temporal/workflows/payments"
	platformmigrations "github.com/tshirtshop/commerce-api/internal/platform/migrations"
	platformobservability "github.com/tshirtshop/commerce-api/internal/platform/observability"
	platformpostgres "github.com/tshirtshop/commerce-api/internal/platform/postgres"
	paymentactivities "github.com/tshirtshop/commerce-api/internal/platform/temporal/activities/payments"
)

func main() {
	ctx := context.Background()
	const serviceName = "commerce-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, chargeKeys, cleanupRepo := buildOrderPersistence(ctx, logger)
	defer cleanupRepo()
	coordinator := orderapp.NewCoordinator(repo, chargeKeys, buildPaymentGateway(logger))
	activities := paymentactivities.NewActivities(coordinator)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, paymentworkflows.ChargeTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(paymentworkflows.ChargeWorkflow, workflow.RegisterOptions{Name: paymentworkflows.ChargeWorkflowName})
	w.RegisterActivityWithOptions(activities.ExecuteCharge, activity.RegisterOptions{Name: paymentworkflows.ExecuteChargeActivityName})

	logger.Info("worker listening", slog.String("taskQueue", paymentworkflows.ChargeTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderPersistence(ctx context.Context, logger *slog.Logger) (orderports.Repository, orderports.ChargeKeyStore, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		return ordermemory.NewRepository(), ordermemory.NewChargeKeyStore(), cleanup
	}
	if err := platformmigrations.Run(db); err != nil {
		logger.Warn("worker failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		cleanup()
		return ordermemory.NewRepository(), ordermemory.NewChargeKeyStore(), func() {}
	}
	logger.Info("worker order repository configured with postgres")
	return orderpostgres.NewRepository(db), orderpostgres.NewChargeKeyStore(db), cleanup
}

func buildPaymentGateway(logger *slog.Logger) orderports.PaymentGateway {
	baseURL := strings.TrimSpace(os.Getenv("PAYMENT_BASE_URL"))
	if baseURL == "" {
		logger.Warn("PAYMENT_BASE_URL not set, captures are simulated in memory")
		return ordermemory.NewGateway()
	}
	c, err := paymentclient.NewClient(baseURL, nil)
	if err != nil {
		logger.Warn("invalid payment base URL, captures are simulated in memory", slog.String("error", err.Error()))
		return ordermemory.NewGateway()
	}
	return c
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
