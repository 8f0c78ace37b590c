// Package payment implements the token store checkout and webhook flows.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/logger"
	"github.com/kodella-ai/kodella/internal/store"
	"go.uber.org/zap"
)

// Webhook event types sent by the payment provider
const (
	EventTypePaymentCompleted  = "payment.completed"
	EventTypeValidationWebhook = "validation.webhook"
)

// Config holds payment provider configuration
type Config struct {
	// WebhookSecret is the shared HMAC key for webhook signatures
	WebhookSecret string
	// CheckoutBaseURL is the provider-hosted checkout page
	CheckoutBaseURL string
}

// Service handles checkout creation and payment confirmation
type Service struct {
	store store.Store
	cfg   Config
}

// NewService creates a new payment service
func NewService(s store.Store, cfg Config) *Service {
	return &Service{
		store: s,
		cfg:   cfg,
	}
}

// Checkout is the result of creating a checkout intent
type Checkout struct {
	IntentID      string
	CheckoutURL   string
	CheckoutToken string
	Package       *Package
}

// CreateCheckout builds a provider checkout session for the given package
func (s *Service) CreateCheckout(ctx context.Context, userID int64, packageID int) (*Checkout, error) {
	pkg, ok := PackageByID(packageID)
	if !ok {
		return nil, fmt.Errorf("%w: invalid package", domain.ErrValidation)
	}

	intentID := ulid.Make().String()
	token, err := EncodeCheckoutToken(CheckoutToken{
		IntentID:  intentID,
		UserID:    userID,
		PackageID: pkg.ID,
		Tokens:    pkg.Tokens,
		Price:     pkg.Price,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "created checkout intent",
		zap.String("intentID", intentID),
		zap.Int64("userID", userID),
		zap.Int("packageID", pkg.ID))

	return &Checkout{
		IntentID:      intentID,
		CheckoutURL:   fmt.Sprintf("%s?token=%s", s.cfg.CheckoutBaseURL, token),
		CheckoutToken: token,
		Package:       pkg,
	}, nil
}

// webhookPayload is the provider webhook body
type webhookPayload struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Custom struct {
		UserID int64 `json:"userId"`
		Tokens int64 `json:"tokens"`
	} `json:"custom"`
}

// HandleWebhook verifies and processes a provider webhook. The raw body is
// needed for signature verification, so it must not be re-serialized upstream.
// A replayed event returns domain.ErrDuplicatePayment without a second credit.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !VerifySignature(s.cfg.WebhookSecret, body, signature) {
		return fmt.Errorf("%w: invalid webhook signature", domain.ErrUnauthorized)
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: malformed webhook body", domain.ErrValidation)
	}

	if payload.Type != EventTypePaymentCompleted && payload.Type != EventTypeValidationWebhook {
		logger.InfoCtx(ctx, "ignoring webhook event", zap.String("type", payload.Type))
		return nil
	}

	if payload.Custom.UserID == 0 || payload.Custom.Tokens <= 0 {
		return fmt.Errorf("%w: webhook payload missing user or token grant", domain.ErrValidation)
	}

	// Providers occasionally omit the event ID on test events
	eventID := payload.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	newBalance, err := s.store.RecordPaymentCredit(ctx, store.PaymentCreditInput{
		EventID:     eventID,
		UserID:      payload.Custom.UserID,
		TokenAmount: payload.Custom.Tokens,
		Payload:     body,
		Description: fmt.Sprintf("Tebex payment - %d tokens purchased", payload.Custom.Tokens),
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "credited payment",
		zap.String("eventID", eventID),
		zap.Int64("userID", payload.Custom.UserID),
		zap.Int64("tokens", payload.Custom.Tokens),
		zap.Int64("newBalance", newBalance))
	return nil
}

// ConfirmManual credits a purchase from a checkout token presented by the
// signed-in user. The embedded intent ID makes confirmation idempotent.
func (s *Service) ConfirmManual(ctx context.Context, userID int64, amount int64, encodedToken string) (int64, error) {
	token, err := DecodeCheckoutToken(encodedToken)
	if err != nil {
		return 0, err
	}

	if token.UserID != userID {
		return 0, fmt.Errorf("%w: checkout token belongs to another user", domain.ErrUnauthorized)
	}
	if token.Tokens != amount {
		return 0, fmt.Errorf("%w: token amount mismatch", domain.ErrValidation)
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal checkout token: %w", err)
	}

	return s.store.RecordPaymentCredit(ctx, store.PaymentCreditInput{
		EventID:     token.IntentID,
		UserID:      userID,
		TokenAmount: amount,
		Payload:     payload,
		Description: fmt.Sprintf("Token purchase - %d tokens", amount),
	})
}
