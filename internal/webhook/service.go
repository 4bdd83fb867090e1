package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	"ms-landing/internal/sheets"
	"ms-landing/internal/sse"
	"ms-landing/internal/utils"
	"ms-landing/internal/webhook/dedup"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"

	defaultCustomerName = "Cliente"
	unknownProduct      = "produto desconhecido"
)

type PurchaseStore interface {
	SavePurchase(ctx context.Context, p *models.Purchase) error
}

type Forwarder interface {
	Forward(ctx context.Context, record models.SheetRecord) error
}

type Publisher interface {
	PublishPurchaseCompleted(ctx context.Context, eventID string, purchase *models.Purchase) error
}

// Result describes an acknowledged event.
type Result struct {
	EventID   string
	EventType string
	Duplicate bool
}

type Service struct {
	Secret    string
	Events    dedup.Store
	EventTTL  time.Duration
	Purchases PurchaseStore
	Sheets    Forwarder
	Publisher Publisher   // nil when Kafka is disabled
	Broker    *sse.Broker // nil disables the success-page feed
	TimeZone  string
	logger    *logger.Logger
}

func NewService(secret string, events dedup.Store, ttl time.Duration, purchases PurchaseStore, sheets Forwarder, timeZone string, log *logger.Logger) *Service {
	return &Service{
		Secret:    secret,
		Events:    events,
		EventTTL:  ttl,
		Purchases: purchases,
		Sheets:    sheets,
		TimeZone:  timeZone,
		logger:    log,
	}
}

// PurchaseTopic is the broker topic the success page for sessionID listens on.
func PurchaseTopic(sessionID string) string {
	return "purchase:" + sessionID
}

// Handle verifies and processes one Stripe delivery. A returned error is
// always a *WebhookError; downstream failures are logged, not returned.
func (s *Service) Handle(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if s.Secret == "" {
		s.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return nil, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook secret not configured",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.Secret, opts)
	if err != nil {
		s.logger.LogSecurity("WEBHOOK_SIGNATURE", fmt.Sprintf("Rejected webhook: %v", err))
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   fmt.Sprintf("Webhook Error: %v", err),
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	result := &Result{EventID: event.ID, EventType: string(event.Type)}
	s.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event %s (%s)", event.ID, event.Type))

	if event.Type != EventCheckoutCompleted {
		s.logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
		return result, nil
	}

	claimed, err := s.Events.Claim(ctx, event.ID, s.EventTTL)
	if err != nil {
		// Without the store we cannot tell; prefer a possible duplicate row over a lost one.
		s.logger.Error("WEBHOOK", fmt.Sprintf("Processed-event store unavailable for %s: %v", event.ID, err))
		claimed = true
	}
	if !claimed {
		s.logger.Info("WEBHOOK", fmt.Sprintf("Event %s already processed, skipping", event.ID))
		result.Duplicate = true
		return result, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		s.release(ctx, event.ID)
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal checkout session: %v", err))
		return nil, &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event data",
			InternalError: fmt.Sprintf("Failed to unmarshal checkout session: %v", err),
			OriginalErr:   err,
		}
	}

	purchase := PurchaseFromSession(event.ID, &session)
	s.logger.LogPayment("CHECKOUT_COMPLETED", session.ID, fmt.Sprintf("%s - %s - %s", purchase.CustomerName, purchase.Email, purchase.Product))

	if err := s.Purchases.SavePurchase(ctx, purchase); err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to record purchase %s: %v", session.ID, err))
	}

	// A purchase is announced on Kafka once per event: only when this delivery
	// is final. A failed forward releases the claim and leaves it to the redelivery.
	final := true
	if err := s.Sheets.Forward(ctx, s.SheetRecord(purchase)); err != nil {
		if errors.Is(err, sheets.ErrNotConfigured) {
			s.logger.Warn("WEBHOOK", fmt.Sprintf("Purchase %s recorded locally only: %v", session.ID, err))
		} else {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to send purchase %s to the spreadsheet: %v", session.ID, err))
			s.release(ctx, event.ID)
			final = false
		}
	}

	if final && s.Publisher != nil {
		if err := s.Publisher.PublishPurchaseCompleted(ctx, event.ID, purchase); err != nil {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to publish purchase %s: %v", session.ID, err))
		}
	}

	if s.Broker != nil {
		s.Broker.Publish(PurchaseTopic(session.ID), sse.Event{
			Name: "completed",
			Data: models.PurchaseStatusResponse{SessionID: session.ID, Status: purchase.Status, Product: purchase.Product},
		})
	}

	return result, nil
}

// SheetRecord renders a purchase as the spreadsheet row.
func (s *Service) SheetRecord(p *models.Purchase) models.SheetRecord {
	return models.SheetRecord{
		Nome:       p.CustomerName,
		Email:      p.Email,
		Telefone:   p.Phone,
		Produto:    p.Product,
		DataCompra: utils.FormatLocal(p.PurchasedAt, s.TimeZone),
		Status:     models.SheetStatusPending,
	}
}

func (s *Service) release(ctx context.Context, eventID string) {
	if err := s.Events.Release(ctx, eventID); err != nil {
		s.logger.Warn("WEBHOOK", fmt.Sprintf("Failed to release event %s: %v", eventID, err))
	}
}

// PurchaseFromSession extracts the buyer and product from a completed session,
// applying the defaults for fields Stripe left empty.
func PurchaseFromSession(eventID string, session *stripe.CheckoutSession) *models.Purchase {
	p := &models.Purchase{
		SessionID:    session.ID,
		EventID:      eventID,
		CustomerName: defaultCustomerName,
		Product:      unknownProduct,
		AmountTotal:  session.AmountTotal,
		Currency:     string(session.Currency),
		Status:       models.PurchaseCompleted,
		PurchasedAt:  utils.UnixTimeToTime(session.Created).UTC(),
	}

	if d := session.CustomerDetails; d != nil {
		if d.Name != "" {
			p.CustomerName = d.Name
		}
		p.Email = d.Email
		p.Phone = d.Phone
	}
	if produto := session.Metadata["produto"]; produto != "" {
		p.Product = produto
	}
	return p
}
