package checkout

import (
	"errors"

	"github.com/stripe/stripe-go/v82/client"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// NewStripeSessions returns the checkout sessions client for secretKey.
func NewStripeSessions(secretKey string) (SessionCreator, error) {
	if secretKey == "" {
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil || sc.CheckoutSessions == nil {
		return nil, ErrStripeClientInitFailed
	}
	return sc.CheckoutSessions, nil
}
