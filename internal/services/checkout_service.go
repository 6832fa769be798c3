package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"vault-backend/internal/amount"
	"vault-backend/internal/assets"
	"vault-backend/internal/clients"
	"vault-backend/internal/metrics"
)

// Pipeline failures the handler maps to client-facing messages. The wrapped
// upstream detail is logged here and never leaves the service.
var (
	ErrFunkitQuote = errors.New("funkit checkout quote unavailable")
	ErrStripeQuote = errors.New("stripe buy quote unavailable")
)

// quoteCreatedSubject is the NATS subject composite quotes are announced on.
const quoteCreatedSubject = "vault.checkout.quote.created"

// defaultStageTimeout bounds each upstream call so a hung upstream cannot
// pin a request slot indefinitely.
const defaultStageTimeout = 10 * time.Second

// FunkitAPI is the slice of the funkit client the pipeline needs.
type FunkitAPI interface {
	GetCheckoutQuote(ctx context.Context, req *clients.CheckoutQuoteRequest) (*clients.CheckoutQuote, error)
	GetStripeBuyQuote(ctx context.Context, destinationCurrency, destinationNetwork, destinationAmount string) (*clients.StripeNetworkQuote, error)
}

// EventPublisher publishes service events. Optional; nil disables publishing.
type EventPublisher interface {
	PublishJSON(subject string, v interface{}) error
}

// CheckoutService chains the funkit checkout quote and the Stripe on-ramp
// quote into one composite purchase quote.
type CheckoutService struct {
	funkit       FunkitAPI
	publisher    EventPublisher
	logger       *logrus.Logger
	stageTimeout time.Duration
}

// NewCheckoutService creates a new CheckoutService instance
func NewCheckoutService(funkit FunkitAPI, publisher EventPublisher, logger *logrus.Logger) *CheckoutService {
	return &CheckoutService{
		funkit:       funkit,
		publisher:    publisher,
		logger:       logger,
		stageTimeout: defaultStageTimeout,
	}
}

// CheckoutQuoteParams is the validated input of the pipeline.
type CheckoutQuoteParams struct {
	RecipientAddr string
	TokenAmount   decimal.Decimal // destination token decimal units, > 0
	IsNY          bool
}

// CompositeQuote is the pipeline output. Built fresh per request from the
// two upstream quotes and discarded once sent.
type CompositeQuote struct {
	QuoteID            string  `json:"quoteId"`
	EstSubtotalUsd     float64 `json:"estSubtotalUsd"`
	PaymentTokenChain  int     `json:"paymentTokenChain"`
	PaymentTokenSymbol string  `json:"paymentTokenSymbol"`
	PaymentTokenAmount string  `json:"paymentTokenAmount"`
	NetworkFees        string  `json:"networkFees"`
	CardFees           string  `json:"cardFees"`
	TotalUsd           string  `json:"totalUsd"`
}

// GetCheckoutQuote runs the aggregation pipeline: pick the source asset,
// quote the bridge for the destination amount, convert the bridge's required
// source amount into decimal units, quote the payment processor for that
// amount, and compose the fee breakdown. All-or-nothing: a failure at either
// stage discards everything; nothing is retried or cached.
func (s *CheckoutService) GetCheckoutQuote(ctx context.Context, params *CheckoutQuoteParams) (*CompositeQuote, error) {
	requestID := uuid.NewString()
	log := s.logger.WithField("request_id", requestID)

	sourceAsset := assets.PickSourceAsset(params.IsNY)
	targetBaseUnits := amount.ToBaseUnits(params.TokenAmount, assets.StarknetUSDC.Decimals)

	// Stage A: bridge quote for the destination amount.
	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	checkoutQuote, err := s.funkit.GetCheckoutQuote(stageCtx, &clients.CheckoutQuoteRequest{
		SourceAsset:      sourceAsset,
		ToAmountBaseUnit: targetBaseUnits.String(),
		RecipientAddr:    params.RecipientAddr,
	})
	cancel()
	if err != nil {
		log.WithFields(logrus.Fields{
			"stage": "funkit_checkout",
			"error": err.Error(),
		}).Error("Checkout quote stage failed")
		metrics.QuoteRequestsTotal.WithLabelValues("funkit_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrFunkitQuote, err)
	}

	// The bridge quotes its required input in source asset base units;
	// the processor must be quoted in that asset's decimal units, rounded
	// up so the purchase always covers the bridge's requirement.
	requiredFromAmount, err := amount.ParseBaseUnits(checkoutQuote.EstTotalFromAmountBaseUnit, sourceAsset.Decimals)
	if err != nil {
		log.WithFields(logrus.Fields{
			"stage":    "funkit_checkout",
			"quote_id": checkoutQuote.QuoteID,
			"error":    err.Error(),
		}).Error("Checkout quote returned malformed amount")
		metrics.QuoteRequestsTotal.WithLabelValues("funkit_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrFunkitQuote, err)
	}
	paymentTokenAmount := amount.RoundUpFive(requiredFromAmount)

	// Stage B: processor quote for the source-asset amount.
	stageCtx, cancel = context.WithTimeout(ctx, s.stageTimeout)
	stripeQuote, err := s.funkit.GetStripeBuyQuote(stageCtx, sourceAsset.Symbol, assets.PolygonNetworkName, paymentTokenAmount.String())
	cancel()
	if err != nil {
		log.WithFields(logrus.Fields{
			"stage":    "stripe_buy",
			"quote_id": checkoutQuote.QuoteID,
			"error":    err.Error(),
		}).Error("Stripe quote stage failed")
		metrics.QuoteRequestsTotal.WithLabelValues("stripe_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStripeQuote, err)
	}

	composite, err := composeQuote(checkoutQuote, stripeQuote, sourceAsset, paymentTokenAmount)
	if err != nil {
		log.WithFields(logrus.Fields{
			"stage":    "compose",
			"quote_id": checkoutQuote.QuoteID,
			"error":    err.Error(),
		}).Error("Stripe quote carried malformed fees")
		metrics.QuoteRequestsTotal.WithLabelValues("stripe_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStripeQuote, err)
	}

	metrics.QuoteRequestsTotal.WithLabelValues("success").Inc()
	s.publishQuoteCreated(composite)

	return composite, nil
}

// composeQuote merges the two upstream fee models into one breakdown:
// network fees are the bridge's USD fee estimate plus the processor's
// network fee; card fees and the total charge come from the processor.
func composeQuote(checkoutQuote *clients.CheckoutQuote, stripeQuote *clients.StripeNetworkQuote, sourceAsset assets.SourceAsset, paymentTokenAmount decimal.Decimal) (*CompositeQuote, error) {
	networkFee, err := decimal.NewFromString(stripeQuote.Fees.NetworkFeeMonetary.String())
	if err != nil {
		return nil, fmt.Errorf("invalid network_fee_monetary %q: %w", stripeQuote.Fees.NetworkFeeMonetary, err)
	}
	transactionFee, err := decimal.NewFromString(stripeQuote.Fees.TransactionFeeMonetary.String())
	if err != nil {
		return nil, fmt.Errorf("invalid transaction_fee_monetary %q: %w", stripeQuote.Fees.TransactionFeeMonetary, err)
	}
	sourceTotal, err := decimal.NewFromString(stripeQuote.SourceTotalAmount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid source_total_amount %q: %w", stripeQuote.SourceTotalAmount, err)
	}

	bridgeFeesUsd := decimal.NewFromFloat(checkoutQuote.EstFeesUsd)

	return &CompositeQuote{
		QuoteID:            checkoutQuote.QuoteID,
		EstSubtotalUsd:     checkoutQuote.EstSubtotalUsd,
		PaymentTokenChain:  sourceAsset.ChainID,
		PaymentTokenSymbol: sourceAsset.Symbol,
		PaymentTokenAmount: paymentTokenAmount.String(),
		NetworkFees:        amount.FixTwo(networkFee.Add(bridgeFeesUsd)),
		CardFees:           amount.FixTwo(transactionFee),
		TotalUsd:           amount.FixTwo(sourceTotal),
	}, nil
}

// publishQuoteCreated announces the composite quote on NATS, best-effort.
func (s *CheckoutService) publishQuoteCreated(quote *CompositeQuote) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(quoteCreatedSubject, quote); err != nil {
		metrics.QuoteEventsFailed.Inc()
		s.logger.WithFields(logrus.Fields{
			"subject":  quoteCreatedSubject,
			"quote_id": quote.QuoteID,
			"error":    err.Error(),
		}).Warn("Failed to publish quote event")
		return
	}
	metrics.QuoteEventsPublished.Inc()
}
