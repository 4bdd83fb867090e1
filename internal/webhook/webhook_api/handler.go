package webhook_api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-landing/internal/logger"
	"ms-landing/internal/utils"
	"ms-landing/internal/webhook"

	"github.com/go-chi/chi/v5"
)

// Stripe caps event payloads well below this.
const maxBodyBytes = int64(65536)

type Handler struct {
	Service *webhook.Service
	Logger  *logger.Logger
}

func NewHandler(service *webhook.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/webhook", h.StripeWebhook)
}

type ackResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// StripeWebhook handles POST /api/webhook with the raw, signed Stripe payload.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.MethodNotAllowed(w, http.MethodPost)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to read body: %v", err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, "Webhook Error: payload too large")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, "Webhook Error: could not read payload")
		return
	}

	result, err := h.Service.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		var webhookErr *webhook.WebhookError
		if errors.As(err, &webhookErr) {
			h.Logger.Info("API", fmt.Sprintf("StripeWebhook: handling webhook error category=%s, status=%d",
				webhookErr.Category, webhookErr.StatusCode))
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}
		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ackResponse{Received: true, Duplicate: result.Duplicate})
}
