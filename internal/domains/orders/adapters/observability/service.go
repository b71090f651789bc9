package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/application"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

const tracerName = "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   orderports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner orderports.Service, opts ...Option) orderports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input orderports.CreateOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(
			attribute.String("cart.id", input.CartID.String()),
			attribute.Int64("shipping.id", input.ShippingID),
			attribute.Int64("tax.id", input.TaxID),
		))
	defer span.End()

	order, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		if errors.Is(err, application.ErrCheckoutConflict) {
			s.metrics.recordCheckoutConflict(ctx)
		}
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("cart.id", input.CartID.String()))
	}
	s.metrics.recordOrderCreated(ctx)
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.logInfo(ctx, "order created",
		slog.Int64("order.id", order.ID),
		slog.String("cart.id", input.CartID.String()),
		slog.String("order.total", order.GrandTotal.String()))
	return order, nil
}

func (s *Service) GetOrderSummary(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrderSummary",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.inner.GetOrderSummary(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return order, nil
}

func (s *Service) GetCustomerOrders(ctx context.Context, customerID int64, page, pageSize int) ([]*domain.Order, int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetCustomerOrders",
		trace.WithAttributes(
			attribute.Int64("customer.id", customerID),
			attribute.Int("page", page),
		))
	defer span.End()

	orders, total, err := s.inner.GetCustomerOrders(ctx, customerID, page, pageSize)
	if err != nil {
		return nil, 0, s.handleError(ctx, span, err, "failed to list customer orders", slog.Int64("customer.id", customerID))
	}
	span.SetAttributes(attribute.Int64("orders.total", total))
	return orders, total, nil
}

func (s *Service) Pay(ctx context.Context, cmd orderports.ChargeCommand) (*orderports.ChargeOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Pay",
		trace.WithAttributes(attribute.Int64("order.id", cmd.OrderID)))
	defer span.End()

	outcome, err := s.inner.Pay(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "payment failed", slog.Int64("order.id", cmd.OrderID))
	}
	span.SetAttributes(attribute.String("payment.status", string(outcome.Status)))
	if outcome.Status == domain.PaymentPaid {
		s.metrics.recordPaymentCaptured(ctx)
	} else {
		s.metrics.recordPaymentDeclined(ctx)
	}
	s.logInfo(ctx, "payment completed",
		slog.Int64("order.id", cmd.OrderID),
		slog.String("payment.status", string(outcome.Status)))
	return outcome, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated     metric.Int64Counter
	checkoutConflicts metric.Int64Counter
	paymentsCaptured  metric.Int64Counter
	paymentsDeclined  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	checkoutConflicts, _ := m.Int64Counter("orders.service.checkout_conflicts", metric.WithDescription("Number of checkout races lost"))
	paymentsCaptured, _ := m.Int64Counter("orders.service.payments_captured", metric.WithDescription("Number of payments captured"))
	paymentsDeclined, _ := m.Int64Counter("orders.service.payments_declined", metric.WithDescription("Number of payments declined"))
	return serviceMetrics{
		ordersCreated:     ordersCreated,
		checkoutConflicts: checkoutConflicts,
		paymentsCaptured:  paymentsCaptured,
		paymentsDeclined:  paymentsDeclined,
	}
}

func (m serviceMetrics) recordOrderCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCheckoutConflict(ctx context.Context) {
	if m.checkoutConflicts != nil {
		m.checkoutConflicts.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordPaymentCaptured(ctx context.Context) {
	if m.paymentsCaptured != nil {
		m.paymentsCaptured.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordPaymentDeclined(ctx context.Context) {
	if m.paymentsDeclined != nil {
		m.paymentsDeclined.Add(ctx, 1)
	}
}

var _ orderports.Service = (*Service)(nil)
