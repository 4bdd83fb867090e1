package share

import (
	"errors"
	"fmt"
	"net/http"

	"ms-landing/internal/catalog"
	"ms-landing/internal/logger"
	"ms-landing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	QR      *QRGenerator
	Catalog *catalog.Catalog
	Logger  *logger.Logger
}

func NewHandler(qr *QRGenerator, cat *catalog.Catalog, log *logger.Logger) *Handler {
	return &Handler{QR: qr, Catalog: cat, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/share/qr", h.GetQRCode)
}

// GetQRCode serves GET /api/share/qr[?produto=<key>] as image/png.
func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("produto")
	if product != "" {
		if _, err := h.Catalog.Lookup(product); errors.Is(err, catalog.ErrUnknownProduct) {
			utils.WriteError(w, http.StatusBadRequest, "Produto inválido")
			return
		}
	}

	png, err := h.QR.PNG(product)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetQRCode: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao gerar QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
