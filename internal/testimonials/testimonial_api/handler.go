package testimonial_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-landing/internal/auth"
	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	"ms-landing/internal/sse"
	"ms-landing/internal/testimonials"
	"ms-landing/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	msgInvalid   = "Preencha comentário e selecione uma avaliação."
	msgDuplicate = "Você já enviou este comentário!"
	msgForbidden = "Você só pode alterar seus próprios comentários."
	msgNotFound  = "Comentário não encontrado."
	msgFailure   = "Erro ao salvar comentário."

	maxTestimonialBody = 8 << 10
	pingInterval       = 25 * time.Second
)

type Handler struct {
	Service *testimonials.Service
	Broker  *sse.Broker
	Auth    func(http.Handler) http.Handler
	Logger  *logger.Logger
}

func NewHandler(service *testimonials.Service, broker *sse.Broker, authMiddleware func(http.Handler) http.Handler, log *logger.Logger) *Handler {
	return &Handler{Service: service, Broker: broker, Auth: authMiddleware, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/testimonials", func(r chi.Router) {
		r.Get("/", h.ListTestimonials)
		r.Get("/summary", h.GetSummary)
		r.Get("/stream", h.StreamTestimonials)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth)
			r.Post("/", h.CreateTestimonial)
			r.Put("/{id}", h.UpdateTestimonial)
			r.Delete("/{id}", h.DeleteTestimonial)
		})
	})
}

func (h *Handler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.Service.List(r.Context(), limit)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTestimonials: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao carregar comentários.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSummary: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao carregar comentários.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), auth.IdentityFrom(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, "CreateTestimonial", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.Update(r.Context(), auth.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, "UpdateTestimonial", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), auth.IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "DeleteTestimonial", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamTestimonials pushes created/updated/deleted events until the client leaves.
func (h *Handler) StreamTestimonials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events := h.Broker.Subscribe(ctx, testimonials.Topic)

	stream, err := sse.Open(w)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming não suportado")
		return
	}
	if err := stream.Send(sse.Event{Name: "connected", Data: map[string]string{"status": "connected"}}); err != nil {
		return
	}
	h.Logger.Debug("SSE", fmt.Sprintf("Client connected to testimonial feed (%d listening)", h.Broker.ClientCount(testimonials.Topic)))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := stream.Send(event); err != nil {
				h.Logger.Debug("SSE", fmt.Sprintf("Testimonial feed write failed: %v", err))
				return
			}
		case <-ticker.C:
			if err := stream.Ping(); err != nil {
				return
			}
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from testimonial feed")
			return
		}
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (models.TestimonialRequest, bool) {
	var req models.TestimonialRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxTestimonialBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, msgInvalid)
		return req, false
	}
	return req, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, testimonials.ErrInvalidInput):
		utils.WriteError(w, http.StatusBadRequest, msgInvalid)
	case errors.Is(err, testimonials.ErrDuplicate):
		utils.WriteError(w, http.StatusConflict, msgDuplicate)
	case errors.Is(err, testimonials.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, testimonials.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, msgNotFound)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, msgFailure)
	}
}
