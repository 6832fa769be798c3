package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"vault-backend/internal/clients"
)

type mockFunkitAPI struct {
	checkoutQuote *clients.CheckoutQuote
	checkoutErr   error
	stripeQuote   *clients.StripeNetworkQuote
	stripeErr     error

	checkoutCalls []*clients.CheckoutQuoteRequest
	stripeCalls   []string // destinationAmount per call
}

func (m *mockFunkitAPI) GetCheckoutQuote(ctx context.Context, req *clients.CheckoutQuoteRequest) (*clients.CheckoutQuote, error) {
	m.checkoutCalls = append(m.checkoutCalls, req)
	return m.checkoutQuote, m.checkoutErr
}

func (m *mockFunkitAPI) GetStripeBuyQuote(ctx context.Context, destinationCurrency, destinationNetwork, destinationAmount string) (*clients.StripeNetworkQuote, error) {
	m.stripeCalls = append(m.stripeCalls, destinationAmount)
	return m.stripeQuote, m.stripeErr
}

type mockPublisher struct {
	subjects []string
	payloads []interface{}
	err      error
}

func (m *mockPublisher) PublishJSON(subject string, v interface{}) error {
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, v)
	return m.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func stripeQuoteFixture(networkFee, transactionFee, sourceTotal string) *clients.StripeNetworkQuote {
	quote := &clients.StripeNetworkQuote{}
	quote.Fees.NetworkFeeMonetary = json.Number(networkFee)
	quote.Fees.TransactionFeeMonetary = json.Number(transactionFee)
	quote.SourceTotalAmount = json.Number(sourceTotal)
	return quote
}

func TestGetCheckoutQuoteComposesBothStages(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID:                    "q1",
			EstTotalFromAmountBaseUnit: "101500000",
			EstFeesUsd:                 1.0,
			EstSubtotalUsd:             100.0,
		},
		stripeQuote: stripeQuoteFixture("0.50", "2.10", "104.10"),
	}
	publisher := &mockPublisher{}
	svc := NewCheckoutService(funkit, publisher, testLogger())

	quote, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
		IsNY:          false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.QuoteID != "q1" {
		t.Errorf("wrong quoteId: %s", quote.QuoteID)
	}
	if quote.EstSubtotalUsd != 100.0 {
		t.Errorf("wrong estSubtotalUsd: %f", quote.EstSubtotalUsd)
	}
	if quote.PaymentTokenChain != 137 {
		t.Errorf("wrong paymentTokenChain: %d", quote.PaymentTokenChain)
	}
	if quote.PaymentTokenSymbol != "usdc" {
		t.Errorf("wrong paymentTokenSymbol: %s", quote.PaymentTokenSymbol)
	}
	if quote.PaymentTokenAmount != "101.5" {
		t.Errorf("wrong paymentTokenAmount: %s", quote.PaymentTokenAmount)
	}
	if quote.NetworkFees != "1.50" {
		t.Errorf("wrong networkFees: %s", quote.NetworkFees)
	}
	if quote.CardFees != "2.10" {
		t.Errorf("wrong cardFees: %s", quote.CardFees)
	}
	if quote.TotalUsd != "104.10" {
		t.Errorf("wrong totalUsd: %s", quote.TotalUsd)
	}

	if len(funkit.checkoutCalls) != 1 {
		t.Fatalf("expected 1 checkout call, got %d", len(funkit.checkoutCalls))
	}
	// 100 USDC at 6 decimals
	if got := funkit.checkoutCalls[0].ToAmountBaseUnit; got != "100000000" {
		t.Errorf("wrong toAmountBaseUnit: %s", got)
	}
	if len(funkit.stripeCalls) != 1 || funkit.stripeCalls[0] != "101.5" {
		t.Errorf("wrong stripe destinationAmount calls: %v", funkit.stripeCalls)
	}

	if len(publisher.subjects) != 1 || publisher.subjects[0] != "vault.checkout.quote.created" {
		t.Errorf("expected one quote event, got %v", publisher.subjects)
	}
}

func TestGetCheckoutQuoteNYUsesEth(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID:                    "q2",
			EstTotalFromAmountBaseUnit: "40000000000000000",
			EstFeesUsd:                 0.25,
		},
		stripeQuote: stripeQuoteFixture("0.10", "1.00", "105.00"),
	}
	svc := NewCheckoutService(funkit, nil, testLogger())

	quote, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
		IsNY:          true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.PaymentTokenSymbol != "eth" {
		t.Errorf("expected eth source asset for NY, got %s", quote.PaymentTokenSymbol)
	}
	// 0.04 ETH at 18 decimals
	if quote.PaymentTokenAmount != "0.04" {
		t.Errorf("wrong paymentTokenAmount: %s", quote.PaymentTokenAmount)
	}
}

func TestGetCheckoutQuoteRoundsSourceAmountUp(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID: "q3",
			// 101.000001 USDC, must round up to the next 5-decimal step
			EstTotalFromAmountBaseUnit: "101000001",
		},
		stripeQuote: stripeQuoteFixture("0", "0", "101.01"),
	}
	svc := NewCheckoutService(funkit, nil, testLogger())

	quote, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.PaymentTokenAmount != "101.00001" {
		t.Errorf("expected rounded-up amount 101.00001, got %s", quote.PaymentTokenAmount)
	}
	if funkit.stripeCalls[0] != "101.00001" {
		t.Errorf("stripe stage quoted unrounded amount: %s", funkit.stripeCalls[0])
	}
}

func TestGetCheckoutQuoteFunkitFailureSkipsStripe(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutErr: errors.New("upstream down"),
	}
	publisher := &mockPublisher{}
	svc := NewCheckoutService(funkit, publisher, testLogger())

	_, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
	})
	if !errors.Is(err, ErrFunkitQuote) {
		t.Fatalf("expected ErrFunkitQuote, got %v", err)
	}
	if len(funkit.stripeCalls) != 0 {
		t.Errorf("stripe stage must not run after funkit failure")
	}
	if len(publisher.subjects) != 0 {
		t.Errorf("no event should be published on failure")
	}
}

func TestGetCheckoutQuoteMalformedBridgeAmount(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID:                    "q4",
			EstTotalFromAmountBaseUnit: "not-a-number",
		},
	}
	svc := NewCheckoutService(funkit, nil, testLogger())

	_, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
	})
	if !errors.Is(err, ErrFunkitQuote) {
		t.Fatalf("expected ErrFunkitQuote, got %v", err)
	}
	if len(funkit.stripeCalls) != 0 {
		t.Errorf("stripe stage must not run after a malformed bridge amount")
	}
}

func TestGetCheckoutQuoteStripeFailure(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID:                    "q5",
			EstTotalFromAmountBaseUnit: "101500000",
		},
		stripeErr: errors.New("no providers"),
	}
	svc := NewCheckoutService(funkit, nil, testLogger())

	_, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
	})
	if !errors.Is(err, ErrStripeQuote) {
		t.Fatalf("expected ErrStripeQuote, got %v", err)
	}
}

func TestGetCheckoutQuoteMalformedStripeFees(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID:                    "q6",
			EstTotalFromAmountBaseUnit: "101500000",
		},
		stripeQuote: stripeQuoteFixture("abc", "2.10", "104.10"),
	}
	svc := NewCheckoutService(funkit, nil, testLogger())

	_, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
	})
	if !errors.Is(err, ErrStripeQuote) {
		t.Fatalf("expected ErrStripeQuote, got %v", err)
	}
}

func TestGetCheckoutQuotePublishFailureIsNonFatal(t *testing.T) {
	funkit := &mockFunkitAPI{
		checkoutQuote: &clients.CheckoutQuote{
			QuoteID:                    "q7",
			EstTotalFromAmountBaseUnit: "101500000",
		},
		stripeQuote: stripeQuoteFixture("0.50", "2.10", "104.10"),
	}
	publisher := &mockPublisher{err: errors.New("nats down")}
	svc := NewCheckoutService(funkit, publisher, testLogger())

	quote, err := svc.GetCheckoutQuote(context.Background(), &CheckoutQuoteParams{
		RecipientAddr: "0x0123456789abcdef0123456789abcdef0123456789abcdef01",
		TokenAmount:   decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the quote: %v", err)
	}
	if quote.QuoteID != "q7" {
		t.Errorf("wrong quoteId: %s", quote.QuoteID)
	}
}
