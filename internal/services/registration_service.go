package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"

	"vault-backend/internal/metrics"
	"vault-backend/internal/models"
	"vault-backend/internal/repository"
)

// ErrInvalidOTP is returned when a submitted code does not match the
// registration's current window.
var ErrInvalidOTP = errors.New("invalid otp code")

// otpPeriod is the validity window of one code. Codes are delivered over
// SMS, so the window is generous and one adjacent step is accepted.
const otpPeriod = 300

// sessionTokenTTL bounds a verified session.
const sessionTokenTTL = 24 * time.Hour

// SMSSender delivers an OTP code to a phone number.
type SMSSender interface {
	SendOTP(ctx context.Context, phoneNumber, code string) error
}

// LogSMSSender writes the code to the log instead of sending it. Used in
// development and test environments without an SMS provider.
type LogSMSSender struct {
	Logger *logrus.Logger
}

func (s *LogSMSSender) SendOTP(ctx context.Context, phoneNumber, code string) error {
	s.Logger.WithFields(logrus.Fields{
		"phone_number": phoneNumber,
		"code":         code,
	}).Info("OTP delivery (log sender)")
	return nil
}

// RegistrationService handles phone-number registration and OTP login.
type RegistrationService struct {
	repo      repository.RegistrationRepository
	sms       SMSSender
	logger    *logrus.Logger
	jwtSecret []byte

	// now feeds TOTP generation and validation. Swapped out in tests.
	now func() time.Time
}

// NewRegistrationService creates a new RegistrationService instance
func NewRegistrationService(repo repository.RegistrationRepository, sms SMSSender, jwtSecret []byte, logger *logrus.Logger) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		sms:       sms,
		logger:    logger,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// RequestOTP creates the registration on first contact, derives the current
// OTP code from its TOTP secret and hands it to the SMS sender. Repeat calls
// for a known phone number reuse the stored secret, so an in-flight code
// stays valid.
func (s *RegistrationService) RequestOTP(ctx context.Context, phoneNumber, nickname string) error {
	registration, err := s.repo.GetByPhoneNumber(ctx, phoneNumber)
	if errors.Is(err, repository.ErrNotFound) {
		registration, err = s.register(ctx, phoneNumber, nickname)
	}
	if err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load registration: %w", err)
	}

	code, err := totp.GenerateCodeCustom(registration.TOTPSecret, s.now(), TOTPOpts())
	if err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.sms.SendOTP(ctx, phoneNumber, code); err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send otp: %w", err)
	}

	metrics.OTPRequestsTotal.WithLabelValues("success").Inc()
	s.logger.WithField("registration_id", registration.ID).Info("OTP sent")
	return nil
}

// VerifyOTP checks the submitted code against the registration's secret and
// issues a session token on success.
func (s *RegistrationService) VerifyOTP(ctx context.Context, phoneNumber, code string) (string, error) {
	registration, err := s.repo.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		metrics.OTPVerificationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to load registration: %w", err)
	}

	valid, err := totp.ValidateCustom(code, registration.TOTPSecret, s.now(), TOTPOpts())
	if err != nil {
		metrics.OTPVerificationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to validate otp: %w", err)
	}
	if !valid {
		metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
		return "", ErrInvalidOTP
	}

	token, err := s.issueSessionToken(registration)
	if err != nil {
		metrics.OTPVerificationsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	return token, nil
}

func (s *RegistrationService) register(ctx context.Context, phoneNumber, nickname string) (*models.Registration, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "vault",
		AccountName: phoneNumber,
		Period:      otpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	registration := &models.Registration{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		Nickname:    nickname,
		TOTPSecret:  key.Secret(),
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"registration_id": registration.ID,
		"nickname":        nickname,
	}).Info("New registration created")
	return registration, nil
}

// SessionClaims is the JWT payload of a verified registration session.
type SessionClaims struct {
	PhoneNumber string `json:"phone_number"`
	Nickname    string `json:"nickname"`
	jwt.RegisteredClaims
}

func (s *RegistrationService) issueSessionToken(registration *models.Registration) (string, error) {
	now := s.now()
	claims := SessionClaims{
		PhoneNumber: registration.PhoneNumber,
		Nickname:    registration.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "vault-backend",
			Subject:   registration.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseSessionToken verifies a session token and returns its claims.
func ParseSessionToken(tokenString string, jwtSecret []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// TOTPOpts are the code generation settings shared by the service and the
// OTP dev tool.
func TOTPOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    otpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
