package checkout_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-landing/internal/catalog"
	"ms-landing/internal/checkout"
	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	"ms-landing/internal/sse"
	"ms-landing/internal/utils"
	"ms-landing/internal/webhook"

	"github.com/go-chi/chi/v5"
)

const maxCheckoutBody = 4 << 10

var pingInterval = 25 * time.Second

type Handler struct {
	Service   *checkout.CheckoutService
	Logger    *logger.Logger
	PublicURL string
	// Broker feeds the success page stream; the route is not mounted without it.
	Broker *sse.Broker
}

func NewHandler(service *checkout.CheckoutService, log *logger.Logger, publicURL string) *Handler {
	return &Handler{Service: service, Logger: log, PublicURL: publicURL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/checkout", h.CreateCheckoutSession)
	r.Get("/checkout/session/{sessionId}", h.GetSessionStatus)
	if h.Broker != nil {
		r.Get("/checkout/session/{sessionId}/stream", h.StreamSessionStatus)
	}
	r.Get("/products", h.ListProducts)
}

// CreateCheckoutSession handles POST /api/checkout with body {"produto": "<key>"}.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req models.CheckoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateCheckoutSession: failed to decode body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Produto inválido")
		return
	}

	session, err := h.Service.CreateSession(r.Context(), req.Product, h.origin(r))
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownProduct) {
			utils.WriteError(w, http.StatusBadRequest, "Produto inválido")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao criar sessão de checkout")
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.CheckoutResponse{ID: session.ID, URL: session.URL})
}

func (h *Handler) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	status, err := h.Service.SessionStatus(r.Context(), sessionID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSessionStatus: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao consultar compra")
		return
	}

	utils.WriteJSON(w, http.StatusOK, status)
}

// StreamSessionStatus holds an SSE connection open until the webhook records
// the purchase, then sends a single completed event.
func (h *Handler) StreamSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	// Subscribe before reading the status so a completion in between is not missed.
	events := h.Broker.Subscribe(r.Context(), webhook.PurchaseTopic(sessionID))

	status, err := h.Service.SessionStatus(r.Context(), sessionID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StreamSessionStatus: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao consultar compra")
		return
	}

	stream, err := sse.Open(w)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming não suportado")
		return
	}

	if status.Status == models.PurchaseCompleted {
		_ = stream.Send(sse.Event{Name: "completed", Data: status})
		return
	}
	if err := stream.Send(sse.Event{Name: "pending", Data: status}); err != nil {
		return
	}
	h.Logger.Debug("SSE", fmt.Sprintf("Waiting for purchase %s (%d listening)", sessionID, h.Broker.ClientCount(webhook.PurchaseTopic(sessionID))))

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = stream.Send(ev)
			if ev.Name == "completed" {
				return
			}
		case <-ping.C:
			if err := stream.Ping(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Service.Catalog.Products())
}

// origin is where Stripe redirects the buyer back to: the caller's Origin
// header, else the configured public URL.
func (h *Handler) origin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	return h.PublicURL
}
