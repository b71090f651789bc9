package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

const tracerName = "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/observability/service"

// Service decorates the cart service with tracing, logging, and metrics.
type Service struct {
	inner   cartports.Service
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

// New wraps the core cart service.
func New(inner cartports.Service, opts ...Option) cartports.Service {
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

func (s *Service) GenerateCartID(ctx context.Context) (cartdomain.CartID, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GenerateCartID")
	defer span.End()

	id, err := s.inner.GenerateCartID(ctx)
	if err != nil {
		return "", s.handleError(ctx, span, err, "failed to generate cart id")
	}
	s.logInfo(ctx, "cart id issued", slog.String("cart.id", id.String()))
	return id, nil
}

func (s *Service) AddItem(ctx context.Context, cartID cartdomain.CartID, productID int64, attributes string, quantity int32) (*cartdomain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem",
		trace.WithAttributes(
			attribute.String("cart.id", cartID.String()),
			attribute.Int64("product.id", productID),
			attribute.Int("quantity.delta", int(quantity)),
		))
	defer span.End()

	snapshot, err := s.inner.AddItem(ctx, cartID, productID, attributes, quantity)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add cart item",
			slog.String("cart.id", cartID.String()), slog.Int64("product.id", productID))
	}
	s.metrics.recordItemAdded(ctx)
	s.logInfo(ctx, "cart item added",
		slog.String("cart.id", cartID.String()),
		slog.Int64("product.id", productID),
		slog.Int("cart.items", len(snapshot.Items)))
	return snapshot, nil
}

func (s *Service) GetCart(ctx context.Context, cartID cartdomain.CartID) (*cartdomain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart",
		trace.WithAttributes(attribute.String("cart.id", cartID.String())))
	defer span.End()

	snapshot, err := s.inner.GetCart(ctx, cartID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", slog.String("cart.id", cartID.String()))
	}
	span.SetAttributes(attribute.Int("cart.items", len(snapshot.Items)))
	return snapshot, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int32) error {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItemQuantity",
		trace.WithAttributes(attribute.Int64("cart.item_id", itemID), attribute.Int("quantity", int(quantity))))
	defer span.End()

	if err := s.inner.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return s.handleError(ctx, span, err, "failed to update cart item quantity", slog.Int64("cart.item_id", itemID))
	}
	s.logInfo(ctx, "cart item quantity updated", slog.Int64("cart.item_id", itemID), slog.Int("quantity", int(quantity)))
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, itemID int64) error {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem",
		trace.WithAttributes(attribute.Int64("cart.item_id", itemID)))
	defer span.End()

	if err := s.inner.RemoveItem(ctx, itemID); err != nil {
		return s.handleError(ctx, span, err, "failed to remove cart item", slog.Int64("cart.item_id", itemID))
	}
	s.logInfo(ctx, "cart item removed", slog.Int64("cart.item_id", itemID))
	return nil
}

func (s *Service) EmptyCart(ctx context.Context, cartID cartdomain.CartID) error {
	ctx, span := s.tracer.Start(ctx, "CartService.EmptyCart",
		trace.WithAttributes(attribute.String("cart.id", cartID.String())))
	defer span.End()

	if err := s.inner.EmptyCart(ctx, cartID); err != nil {
		return s.handleError(ctx, span, err, "failed to empty cart", slog.String("cart.id", cartID.String()))
	}
	s.metrics.recordEmptied(ctx)
	s.logInfo(ctx, "cart emptied", slog.String("cart.id", cartID.String()))
	return nil
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
	itemsAdded   metric.Int64Counter
	cartsEmptied metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	itemsAdded, _ := m.Int64Counter("cart.service.items_added", metric.WithDescription("Number of cart item additions"))
	cartsEmptied, _ := m.Int64Counter("cart.service.carts_emptied", metric.WithDescription("Number of carts emptied"))
	return serviceMetrics{itemsAdded: itemsAdded, cartsEmptied: cartsEmptied}
}

func (m serviceMetrics) recordItemAdded(ctx context.Context) {
	if m.itemsAdded != nil {
		m.itemsAdded.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordEmptied(ctx context.Context) {
	if m.cartsEmptied != nil {
		m.cartsEmptied.Add(ctx, 1)
	}
}

var _ cartports.Service = (*Service)(nil)
