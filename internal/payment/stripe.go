// Package payment adapts the Stripe API to the payment-sheet boundary the
// checkout orchestrator drives: initialize with a client secret, then present
// for confirmation.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var (
	ErrNotInitialized  = errors.New("payment sheet not initialized")
	ErrBadClientSecret = errors.New("malformed client secret")
)

// StripeSheet is a headless stand-in for a mobile payment sheet: Init
// verifies the intent behind the client secret, Present confirms it with the
// configured payment method. One attempt at a time, mirroring the sheet UI.
type StripeSheet struct {
	mu            sync.Mutex
	api           *client.API
	paymentMethod string
	log           *slog.Logger

	intentID     string
	clientSecret string
}

func NewStripeSheet(apiKey, paymentMethod string, log *slog.Logger) *StripeSheet {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeSheet{api: sc, paymentMethod: paymentMethod, log: log}
}

func (s *StripeSheet) Init(_ context.Context, clientSecret, merchantName string) error {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return err
	}

	params := &stripe.PaymentIntentParams{ClientSecret: stripe.String(clientSecret)}
	intent, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return fmt.Errorf("retrieve payment intent: %w", err)
	}
	if intent.Status == stripe.PaymentIntentStatusSucceeded ||
		intent.Status == stripe.PaymentIntentStatusCanceled {
		return fmt.Errorf("payment intent not confirmable in status %s", intent.Status)
	}

	s.mu.Lock()
	s.intentID = intentID
	s.clientSecret = clientSecret
	s.mu.Unlock()

	s.log.Info("payment sheet ready", slog.String("merchant", merchantName))
	return nil
}

func (s *StripeSheet) Present(_ context.Context) error {
	s.mu.Lock()
	intentID := s.intentID
	clientSecret := s.clientSecret
	s.intentID = ""
	s.clientSecret = ""
	s.mu.Unlock()

	if intentID == "" {
		return ErrNotInitialized
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(s.paymentMethod),
	}
	// stripe-go does not model client_secret on confirm params; send it as an
	// extra form field so the request matches the documented confirm call.
	params.AddExtra("client_secret", clientSecret)
	intent, err := s.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("card error: %s", stripeErr.Msg)
		}
		return fmt.Errorf("confirm payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment intent ended in status %s", intent.Status)
	}
	return nil
}

// intentIDFromSecret recovers the payment-intent id from a client secret of
// the form "pi_<id>_secret_<nonce>".
func intentIDFromSecret(secret string) (string, error) {
	idx := strings.Index(secret, "_secret")
	if !strings.HasPrefix(secret, "pi_") || idx < 0 {
		return "", ErrBadClientSecret
	}
	return secret[:idx], nil
}
