package tax

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

var _ orderports.TaxService = (*Client)(nil)

// Client is a thin HTTP client for the Tax service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the tax client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("tax base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

type taxResponse struct {
	TaxID         int64           `json:"tax_id"`
	TaxType       string          `json:"tax_type"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// GetRate resolves the tax id to a percentage rate.
func (c *Client) GetRate(ctx context.Context, taxID int64) (decimal.Decimal, error) {
	if c == nil || c.httpClient == nil {
		return decimal.Zero, errors.New("tax client not configured")
	}
	url := fmt.Sprintf("%s/tax/%d", c.baseURL, taxID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("call tax API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body taxResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return decimal.Zero, fmt.Errorf("decode tax response: %w", err)
		}
		return body.TaxPercentage, nil
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, orderports.ErrTaxNotFound
	default:
		return decimal.Zero, fmt.Errorf("tax API unexpected status: %s", resp.Status)
	}
}
