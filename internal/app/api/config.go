package api

import (
	"os"
	"strings"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process. Collaborator
// base URLs are optional; a missing URL switches that collaborator to its
// in-memory stand-in, which keeps local development self-contained.
type Config struct {
	Port              string
	RedisAddr         string
	CatalogBaseURL    string
	TaxBaseURL        string
	ShippingBaseURL   string
	PaymentBaseURL    string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
}

// LoadConfig reads environment variables and applies defaults.
func LoadConfig() Config {
	return Config{
		Port:              envDefault("PORT", "8080"),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		CatalogBaseURL:    strings.TrimSpace(os.Getenv("CATALOG_BASE_URL")),
		TaxBaseURL:        strings.TrimSpace(os.Getenv("TAX_BASE_URL")),
		ShippingBaseURL:   strings.TrimSpace(os.Getenv("SHIPPING_BASE_URL")),
		PaymentBaseURL:    strings.TrimSpace(os.Getenv("PAYMENT_BASE_URL")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
