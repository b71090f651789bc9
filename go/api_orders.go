package shopserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
	ordermapper "github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/http/mapper"
	orderapp "github.com/tshirtshop/commerce-api/internal/domains/orders/application"
	orderdomain "github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
	"github.com/tshirtshop/commerce-api/internal/shared/auth"
	apierrors "github.com/tshirtshop/commerce-api/internal/shared/errors"
)

// OrdersAPI wires HTTP transport with the orders bounded context service.
// The verifier resolves the optional customer identity from the request.
type OrdersAPI struct {
	service  orderports.Service
	verifier *auth.Verifier
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service orderports.Service, verifier *auth.Verifier) OrdersAPI {
	return OrdersAPI{service: service, verifier: verifier}
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CartID     string `json:"cart_id"`
	ShippingID int64  `json:"shipping_id"`
	TaxID      int64  `json:"tax_id"`
}

// PayOrderRequest asks for a payment capture. The idempotency key is
// generated server-side when the client does not supply one; clients that
// retry must send their own key so retries collapse onto one charge.
type PayOrderRequest struct {
	PaymentToken   string `json:"payment_token"`
	IdempotencyKey string `json:"idempotency_key"`
}

// PayOrderResponse reports the definitive charge outcome.
type PayOrderResponse struct {
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	Reference      string `json:"reference,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Post /orders
// Convert a cart into an order with frozen prices
func (api *OrdersAPI) CreateOrder(c *gin.Context) {
	var payload CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	customerID, err := api.customerFromRequest(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, err)
		return
	}
	input := orderports.CreateOrderInput{
		CartID:     cartdomain.CartID(payload.CartID),
		CustomerID: customerID,
		ShippingID: payload.ShippingID,
		TaxID:      payload.TaxID,
	}
	order, err := api.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromDomainOrder(order))
}

// Get /orders/:order_id
// Fetch an order summary with its frozen items
func (api *OrdersAPI) GetOrderById(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}
	order, err := api.service.GetOrderSummary(c.Request.Context(), orderID)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainOrder(order))
}

// Get /customers/:id/orders
// List a customer's orders, newest first
func (api *OrdersAPI) GetCustomerOrders(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)
	orders, total, err := api.service.GetCustomerOrders(c.Request.Context(), customerID, page, limit)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainOrders(orders, page, limit, total))
}

// Post /orders/:order_id/pay
// Charge an order through the payment gateway, idempotently
func (api *OrdersAPI) PayOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}
	var payload PayOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.IdempotencyKey == "" {
		payload.IdempotencyKey = uuid.NewString()
	}
	cmd := orderports.ChargeCommand{
		OrderID:        orderID,
		PaymentToken:   payload.PaymentToken,
		IdempotencyKey: payload.IdempotencyKey,
	}
	outcome, err := api.service.Pay(c.Request.Context(), cmd)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	if outcome.Status == orderdomain.PaymentFailed {
		respondProblem(c, apierrors.NewDeclinedProblem(outcome.DeclineReason).
			WithExtension("order_id", orderID).
			WithExtension("idempotency_key", cmd.IdempotencyKey))
		return
	}
	c.JSON(http.StatusOK, PayOrderResponse{
		OrderID:        orderID,
		Status:         string(outcome.Status),
		Reference:      outcome.Reference,
		IdempotencyKey: cmd.IdempotencyKey,
	})
}

func (api *OrdersAPI) customerFromRequest(c *gin.Context) (*int64, error) {
	if api.verifier == nil {
		return nil, nil
	}
	return api.verifier.CustomerFromRequest(c.Request.Context(), c.Request)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, orderports.ErrNotFound), errors.Is(err, cartports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, orderapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, orderapp.ErrCheckoutConflict),
		errors.Is(err, orderports.ErrCartAlreadyOrdered),
		errors.Is(err, orderports.ErrIdempotencyConflict),
		errors.Is(err, orderdomain.ErrInvalidTransition):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, orderports.ErrGatewayUnavailable):
		respondError(c, http.StatusBadGateway, err)
	case errors.Is(err, orderapp.ErrTransaction):
		respondProblem(c, apierrors.ErrTransaction.WithDetail(err.Error()))
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
