package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var _ orderports.ShippingService = (*Client)(nil)

// Client is a thin HTTP client for the Shipping service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the shipping client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("shipping base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

type shippingResponse struct {
	ShippingID   int64           `json:"shipping_id"`
	ShippingType string          `json:"shipping_type"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// GetCost resolves the shipping option to its flat cost.
func (c *Client) GetCost(ctx context.Context, shippingID int64) (decimal.Decimal, error) {
	if c == nil || c.httpClient == nil {
		return decimal.Zero, errors.New("shipping client not configured")
	}
	url := fmt.Sprintf("%s/shipping/%d", c.baseURL, shippingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("call shipping API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body shippingResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return decimal.Zero, fmt.Errorf("decode shipping response: %w", err)
		}
		return body.ShippingCost, nil
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, orderports.ErrShippingNotFound
	default:
		return decimal.Zero, fmt.Errorf("shipping API unexpected status: %s", resp.Status)
	}
}
