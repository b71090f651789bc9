package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

var _ cartports.Catalog = (*Client)(nil)

// Client is a thin HTTP client for the Product Catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the catalog client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

type productResponse struct {
	ProductID       int64           `json:"product_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Attributes      []string        `json:"attributes"`
}

// GetProduct loads the product the cart wants to reference.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*cartports.Product, error) {
	product, err := c.fetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &cartports.Product{
		ID:              product.ProductID,
		Name:            product.Name,
		Price:           product.Price,
		DiscountedPrice: product.DiscountedPrice,
	}, nil
}

// ValidateAttributes checks the selected-attributes key against the product's
// sellable combinations. A product that publishes no combinations accepts any
// key, including the empty one.
func (c *Client) ValidateAttributes(ctx context.Context, productID int64, attributes string) error {
	product, err := c.fetchProduct(ctx, productID)
	if err != nil {
		return err
	}
	if len(product.Attributes) == 0 {
		return nil
	}
	for _, allowed := range product.Attributes {
		if allowed == attributes {
			return nil
		}
	}
	return cartports.ErrUnknownAttributes
}

func (c *Client) fetchProduct(ctx context.Context, productID int64) (*productResponse, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("catalog client not configured")
	}
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call catalog API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var product productResponse
		if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
			return nil, fmt.Errorf("decode catalog response: %w", err)
		}
		return &product, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, cartports.ErrProductNotFound
	default:
		return nil, fmt.Errorf("catalog API unexpected status: %s", resp.Status)
	}
}
