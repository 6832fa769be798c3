package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"vault-backend/internal/services"
	"vault-backend/internal/utils"
)

// CheckoutQuoter is the orchestration surface the handler depends on.
// Implemented by services.CheckoutService.
type CheckoutQuoter interface {
	GetCheckoutQuote(ctx context.Context, params *services.CheckoutQuoteParams) (*services.CompositeQuote, error)
}

// CheckoutHandler serves the composite checkout quote endpoint.
type CheckoutHandler struct {
	service CheckoutQuoter
	logger  *logrus.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler instance
func NewCheckoutHandler(service CheckoutQuoter, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

// GetFunkitStripeCheckoutQuote handles GET /get_funkit_stripe_checkout_quote.
// Validation failures return before any upstream call is made.
func (h *CheckoutHandler) GetFunkitStripeCheckoutQuote(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Address is required."})
		return
	}
	if !utils.IsValidStarknetAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid address format."})
		return
	}

	tokenAmount, err := decimal.NewFromString(c.Query("tokenAmount"))
	if err != nil || tokenAmount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Token amount is required."})
		return
	}

	isNy, err := strconv.ParseBool(c.Query("isNy"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "isNy is a required boolean."})
		return
	}

	quote, err := h.service.GetCheckoutQuote(c.Request.Context(), &services.CheckoutQuoteParams{
		RecipientAddr: address,
		TokenAmount:   tokenAmount,
		IsNY:          isNy,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFunkitQuote):
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get a funkit quote."})
		case errors.Is(err, services.ErrStripeQuote):
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get stripe quote."})
		default:
			h.logger.WithField("error", err.Error()).Error("Unexpected checkout quote failure")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, quote)
}
