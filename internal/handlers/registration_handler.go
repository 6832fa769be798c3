package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vault-backend/internal/services"
)

var (
	phoneNumberRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	nicknameRegex    = regexp.MustCompile(`^[A-Za-z]{1,20}$`)
	otpCodeRegex     = regexp.MustCompile(`^\d{6}$`)
)

// Registrar is the registration surface the handler depends on.
// Implemented by services.RegistrationService.
type Registrar interface {
	RequestOTP(ctx context.Context, phoneNumber, nickname string) error
	VerifyOTP(ctx context.Context, phoneNumber, code string) (string, error)
}

// RegistrationHandler serves the OTP registration endpoints.
type RegistrationHandler struct {
	service Registrar
	logger  *logrus.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler instance
func NewRegistrationHandler(service Registrar, logger *logrus.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		logger:  logger,
	}
}

type getOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	Nickname    string `json:"nickname"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

// GetOTP handles POST /get_otp.
func (h *RegistrationHandler) GetOTP(c *gin.Context) {
	var req getOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "body must be a JSON object"})
		return
	}

	if !phoneNumberRegex.MatchString(req.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"message": `body/phone_number must match pattern "^\+[1-9]\d{1,14}$"`})
		return
	}
	if !nicknameRegex.MatchString(req.Nickname) {
		c.JSON(http.StatusBadRequest, gin.H{"message": `body/nickname must match pattern "^[A-Za-z]{1,20}$"`})
		return
	}

	if err := h.service.RequestOTP(c.Request.Context(), req.PhoneNumber, req.Nickname); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to send OTP")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

// VerifyOTP handles POST /verify_otp.
func (h *RegistrationHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "body must be a JSON object"})
		return
	}

	if !phoneNumberRegex.MatchString(req.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"message": `body/phone_number must match pattern "^\+[1-9]\d{1,14}$"`})
		return
	}
	if !otpCodeRegex.MatchString(req.OTP) {
		c.JSON(http.StatusBadRequest, gin.H{"message": `body/otp must match pattern "^\d{6}$"`})
		return
	}

	token, err := h.service.VerifyOTP(c.Request.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOTP) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid OTP code"})
			return
		}
		h.logger.WithField("error", err.Error()).Error("Failed to verify OTP")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
