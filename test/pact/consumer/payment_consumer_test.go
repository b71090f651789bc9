//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	paymentclient "github.com/tshirtshop/commerce-api/internal/clients/http/payment"
	orderports "github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
	pacttest "github.com/tshirtshop/commerce-api/test/pact"
)

// TestPaymentGatewayContract pins the wire contract between the commerce API
// and the payment gateway: a capture succeeds with a reference, and a decline
// comes back as a 402 result carrying the gateway's verbatim reason.
func TestPaymentGatewayContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateGatewayHealthy).
		UponReceiving("a charge that the gateway captures").
		WithRequest("POST", "/charges", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Idempotency-Key", matchers.S(pacttest.CaptureIdemKey))
			b.JSONBody(matchers.Map{
				"order_id":      matchers.Like(pacttest.CaptureOrderID),
				"amount":        matchers.Term("60.93", `\d+\.\d{2}`),
				"currency":      matchers.S("USD"),
				"payment_token": matchers.S(pacttest.CaptureToken),
			})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"captured":  matchers.Like(true),
				"reference": matchers.S(pacttest.ExampleReference),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateCardDeclined).
		UponReceiving("a charge that the gateway declines").
		WithRequest("POST", "/charges", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Idempotency-Key", matchers.S(pacttest.DeclineIdemKey))
			b.JSONBody(matchers.Map{
				"order_id":      matchers.Like(pacttest.DeclineOrderID),
				"amount":        matchers.Term("75.08", `\d+\.\d{2}`),
				"currency":      matchers.S("USD"),
				"payment_token": matchers.S(pacttest.DeclineToken),
			})
		}).
		WillRespondWith(http.StatusPaymentRequired, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"captured":       matchers.Like(false),
				"decline_reason": matchers.S(pacttest.ExampleDeclineReason),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		gateway, err := paymentclient.NewClient(
			fmt.Sprintf("http://%s:%d", host, config.Port),
			&http.Client{Timeout: 10 * time.Second},
		)
		if err != nil {
			return fmt.Errorf("build gateway client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		captured, err := gateway.Charge(ctx, orderports.ChargeRequest{
			OrderID:        pacttest.CaptureOrderID,
			Amount:         decimal.RequireFromString("60.93"),
			Currency:       "USD",
			PaymentToken:   pacttest.CaptureToken,
			IdempotencyKey: pacttest.CaptureIdemKey,
		})
		if err != nil {
			return fmt.Errorf("capture charge: %w", err)
		}
		if !captured.Captured || captured.Reference == "" {
			return fmt.Errorf("expected captured result with reference, got %+v", captured)
		}

		declined, err := gateway.Charge(ctx, orderports.ChargeRequest{
			OrderID:        pacttest.DeclineOrderID,
			Amount:         decimal.RequireFromString("75.08"),
			Currency:       "USD",
			PaymentToken:   pacttest.DeclineToken,
			IdempotencyKey: pacttest.DeclineIdemKey,
		})
		if err != nil {
			return fmt.Errorf("declined charge should be a result, not an error: %w", err)
		}
		if declined.Captured || declined.DeclineReason != pacttest.ExampleDeclineReason {
			return fmt.Errorf("expected decline with reason %q, got %+v", pacttest.ExampleDeclineReason, declined)
		}

		return nil
	})
	require.NoError(t, err)
}
