package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var _ orderports.PaymentGateway = (*Client)(nil)

// Client is the HTTP client for the external payment gateway. A circuit
// breaker sheds load while the gateway is down; an open breaker reports
// ErrGatewayUnavailable so the coordinator's retry policy treats it like any
// other transient failure. Declines are results, never breaker failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*chargeResponse]
}

// NewClient instantiates the gateway client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("payment gateway base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	breaker := gobreaker.NewCircuitBreaker[*chargeResponse](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{baseURL: baseURL, httpClient: httpClient, breaker: breaker}, nil
}

type chargeRequestBody struct {
	OrderID      int64  `json:"order_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	PaymentToken string `json:"payment_token"`
}

type chargeResponse struct {
	Captured      bool   `json:"captured"`
	Reference     string `json:"reference"`
	DeclineReason string `json:"decline_reason"`
}

// Charge asks the gateway to capture the payment. The idempotency key rides
// in the Idempotency-Key header so the gateway deduplicates retries.
func (c *Client) Charge(ctx context.Context, req orderports.ChargeRequest) (*orderports.ChargeResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("payment gateway client not configured")
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return nil, errors.New("idempotency key is required")
	}

	response, err := c.breaker.Execute(func() (*chargeResponse, error) {
		return c.doCharge(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", orderports.ErrGatewayUnavailable)
		}
		return nil, err
	}
	return &orderports.ChargeResult{
		Captured:      response.Captured,
		Reference:     response.Reference,
		DeclineReason: response.DeclineReason,
	}, nil
}

func (c *Client) doCharge(ctx context.Context, req orderports.ChargeRequest) (*chargeResponse, error) {
	body, err := json.Marshal(chargeRequestBody{
		OrderID:      req.OrderID,
		Amount:       req.Amount.StringFixed(2),
		Currency:     req.Currency,
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orderports.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var response chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return nil, fmt.Errorf("decode gateway response: %w", err)
		}
		response.Captured = true
		return &response, nil
	case resp.StatusCode == http.StatusPaymentRequired:
		var response chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return nil, fmt.Errorf("decode gateway response: %w", err)
		}
		response.Captured = false
		return &response, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: gateway status %s", orderports.ErrGatewayUnavailable, resp.Status)
	default:
		return nil, fmt.Errorf("gateway unexpected status: %s", resp.Status)
	}
}
