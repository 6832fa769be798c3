package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"vault-backend/internal/assets"
	"vault-backend/internal/metrics"
)

// ErrUpstreamQuote marks an upstream pricing API response that carries no
// usable quote. Callers map it to a generic client-facing failure; the
// response detail stays in logs.
var ErrUpstreamQuote = errors.New("upstream returned no usable quote")

// checkoutExpiry is how far in the future a requested checkout expires.
const checkoutExpiry = time.Hour

// FunkitClient talks to the funkit API: the cross-chain checkout quote
// endpoint and the Stripe on-ramp quote endpoint. Both authenticate with the
// same pre-provisioned API key.
type FunkitClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// now is the wall clock used for the checkout expiration timestamp.
	// Swapped out in tests.
	now func() time.Time
}

// NewFunkitClient creates a new funkit API client
func NewFunkitClient(baseURL, apiKey string, timeout time.Duration) *FunkitClient {
	return &FunkitClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// CheckoutQuoteRequest represents a funkit checkout quote request
type CheckoutQuoteRequest struct {
	SourceAsset      assets.SourceAsset
	ToAmountBaseUnit string // decimal-string integer in destination token base units
	RecipientAddr    string
}

// CheckoutQuote represents a funkit checkout quote response
type CheckoutQuote struct {
	QuoteID                       string  `json:"quoteId"`
	EstTotalFromAmountBaseUnit    string  `json:"estTotalFromAmountBaseUnit"`
	EstSubtotalFromAmountBaseUnit string  `json:"estSubtotalFromAmountBaseUnit"`
	EstFeesFromAmountBaseUnit     string  `json:"estFeesFromAmountBaseUnit"`
	FromTokenAddress              string  `json:"fromTokenAddress"`
	EstFeesUsd                    float64 `json:"estFeesUsd"`
	EstSubtotalUsd                float64 `json:"estSubtotalUsd"`
	EstTotalUsd                   float64 `json:"estTotalUsd"`
	EstCheckoutTimeMs             int64   `json:"estCheckoutTimeMs"`
}

// StripeBuyQuote represents a Stripe on-ramp quote response, keyed by
// destination network
type StripeBuyQuote struct {
	DestinationNetworkQuotes map[string][]StripeNetworkQuote `json:"destination_network_quotes"`
}

// StripeNetworkQuote is one provider quote for a destination network. Fee
// amounts arrive as decimal strings or numbers; json.Number keeps them
// lossless either way.
type StripeNetworkQuote struct {
	Fees struct {
		NetworkFeeMonetary     json.Number `json:"network_fee_monetary"`
		TransactionFeeMonetary json.Number `json:"transaction_fee_monetary"`
	} `json:"fees"`
	SourceTotalAmount json.Number `json:"source_total_amount"`
}

// GetCheckoutQuote requests a cross-chain checkout quote. The destination
// amount must already be in destination token base units; the expiration
// timestamp is computed here as now + 1 hour.
func (c *FunkitClient) GetCheckoutQuote(ctx context.Context, req *CheckoutQuoteRequest) (*CheckoutQuote, error) {
	params := url.Values{}
	params.Add("fromChainId", strconv.Itoa(req.SourceAsset.ChainID))
	params.Add("fromTokenAddress", req.SourceAsset.TokenAddress.Hex())
	params.Add("toChainId", assets.StarknetChainID)
	params.Add("toTokenAddress", assets.StarknetUSDC.Address)
	params.Add("toAmountBaseUnit", req.ToAmountBaseUnit)
	params.Add("recipientAddr", req.RecipientAddr)
	params.Add("checkoutExpirationTimestampSeconds", strconv.FormatInt(c.now().Add(checkoutExpiry).Unix(), 10))

	var quote CheckoutQuote
	if err := c.get(ctx, "funkit_checkout", "/checkout/quote", params, &quote); err != nil {
		return nil, err
	}

	if quote.QuoteID == "" {
		return nil, fmt.Errorf("checkout quote missing quoteId: %w", ErrUpstreamQuote)
	}

	return &quote, nil
}

// GetStripeBuyQuote requests a Stripe on-ramp buy quote for a destination
// amount expressed in decimal units of the destination currency.
func (c *FunkitClient) GetStripeBuyQuote(ctx context.Context, destinationCurrency, destinationNetwork, destinationAmount string) (*StripeNetworkQuote, error) {
	params := url.Values{}
	params.Add("sourceCurrency", assets.StripeSourceCurrency)
	params.Add("destinationCurrencies", destinationCurrency)
	params.Add("destinationNetworks", destinationNetwork)
	params.Add("destinationAmount", destinationAmount)

	var quote StripeBuyQuote
	if err := c.get(ctx, "stripe_buy", "/on-ramp/stripe-buy-quote", params, &quote); err != nil {
		return nil, err
	}

	networkQuotes := quote.DestinationNetworkQuotes[destinationNetwork]
	if len(networkQuotes) == 0 {
		return nil, fmt.Errorf("no stripe quote for network %s: %w", destinationNetwork, ErrUpstreamQuote)
	}

	return &networkQuotes[0], nil
}

// get executes an authenticated GET against the funkit API and decodes the
// response into out.
func (c *FunkitClient) get(ctx context.Context, upstream, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(upstream, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestDuration.WithLabelValues(upstream, "error").Observe(time.Since(start).Seconds())
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("funkit API error (status %d): %s: %w", resp.StatusCode, string(body), ErrUpstreamQuote)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(upstream, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("failed to decode response: %w", err)
	}

	metrics.UpstreamRequestDuration.WithLabelValues(upstream, "success").Observe(time.Since(start).Seconds())
	return nil
}
