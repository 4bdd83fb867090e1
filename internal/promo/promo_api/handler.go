package promo_api

import (
	"fmt"
	"net/http"
	"time"

	"ms-landing/internal/logger"
	"ms-landing/internal/promo"
	"ms-landing/internal/sse"
	"ms-landing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Countdown *promo.Countdown
	Logger    *logger.Logger
	// Interval between stream ticks.
	Interval time.Duration
	Now      func() time.Time
}

func NewHandler(countdown *promo.Countdown, log *logger.Logger) *Handler {
	return &Handler{Countdown: countdown, Logger: log, Interval: time.Second, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/promo", h.GetPromo)
	r.Get("/promo/stream", h.StreamPromo)
}

func (h *Handler) GetPromo(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Countdown.StatusAt(h.Now()))
}

// StreamPromo sends a tick per interval and closes after one expired event.
func (h *Handler) StreamPromo(w http.ResponseWriter, r *http.Request) {
	stream, err := sse.Open(w)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming não suportado")
		return
	}

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		status := h.Countdown.StatusAt(h.Now())
		if status.Expired {
			_ = stream.Send(sse.Event{Name: "expired", Data: status})
			return
		}
		if err := stream.Send(sse.Event{Name: "tick", Data: status}); err != nil {
			h.Logger.Debug("SSE", fmt.Sprintf("Promo stream write failed: %v", err))
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
