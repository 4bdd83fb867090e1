package sales_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	"ms-landing/internal/sales"
	"ms-landing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type PurchaseLister interface {
	ListPurchases(ctx context.Context, limit int) ([]models.Purchase, error)
}

// Handler serves the owner's sales report. Guard wraps every route and is
// expected to authenticate and restrict to admins.
type Handler struct {
	Service   *sales.Service
	Purchases PurchaseLister
	Guard     []func(http.Handler) http.Handler
	Logger    *logger.Logger
}

func NewHandler(service *sales.Service, purchases PurchaseLister, log *logger.Logger, guard ...func(http.Handler) http.Handler) *Handler {
	return &Handler{Service: service, Purchases: purchases, Guard: guard, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Guard...)
		r.Get("/sales", h.GetSalesReport)
		r.Get("/purchases", h.ListPurchases)
	})
}

// GetSalesReport serves GET /api/admin/sales?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) GetSalesReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.Service.Range(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if errors.Is(err, sales.ErrInvalidRange) {
		utils.WriteError(w, http.StatusBadRequest, "Período inválido")
		return
	}

	report, err := h.Service.Report(r.Context(), start, end)
	if err != nil {
		h.Logger.Error("SALES", fmt.Sprintf("GetSalesReport: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao gerar relatório")
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	purchases, err := h.Purchases.ListPurchases(r.Context(), limit)
	if err != nil {
		h.Logger.Error("SALES", fmt.Sprintf("ListPurchases: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Erro ao listar compras")
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	utils.WriteJSON(w, http.StatusOK, purchases)
}
