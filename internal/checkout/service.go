package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-landing/internal/catalog"
	"ms-landing/internal/logger"
	"ms-landing/internal/models"

	"github.com/stripe/stripe-go/v82"
)

var ErrSessionCreation = errors.New("failed to create checkout session")

// SessionCreator is the slice of the Stripe checkout sessions client we use.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type PurchaseReader interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
}

type CheckoutService struct {
	Catalog   *catalog.Catalog
	Sessions  SessionCreator
	Purchases PurchaseReader
	logger    *logger.Logger
}

func NewCheckoutService(cat *catalog.Catalog, sessions SessionCreator, purchases PurchaseReader, log *logger.Logger) *CheckoutService {
	return &CheckoutService{Catalog: cat, Sessions: sessions, Purchases: purchases, logger: log}
}

// CreateSession opens a one-item Stripe Checkout Session for productKey.
// origin is the site base URL the buyer is sent back to.
func (s *CheckoutService) CreateSession(ctx context.Context, productKey, origin string) (*stripe.CheckoutSession, error) {
	product, err := s.Catalog.Lookup(productKey)
	if err != nil {
		s.logger.Warn("CHECKOUT", fmt.Sprintf("Rejected checkout for product %q", productKey))
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(product.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(origin + "/?success=true"),
		CancelURL:  stripe.String(origin + "/?canceled=true"),
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("produto", product.Key)

	session, err := s.Sessions.New(params)
	if err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("Stripe session creation failed for %s: %v", product.Key, err))
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	s.logger.LogPayment("SESSION_CREATED", session.ID, fmt.Sprintf("product=%s price=%s", product.Key, product.PriceID))
	return session, nil
}

// SessionStatus reports whether the webhook has recorded the purchase for sessionID yet.
func (s *CheckoutService) SessionStatus(ctx context.Context, sessionID string) (*models.PurchaseStatusResponse, error) {
	purchase, err := s.Purchases.GetBySessionID(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.PurchaseStatusResponse{SessionID: sessionID, Status: models.PurchasePending}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}

	return &models.PurchaseStatusResponse{
		SessionID: sessionID,
		Status:    purchase.Status,
		Product:   purchase.Product,
	}, nil
}
