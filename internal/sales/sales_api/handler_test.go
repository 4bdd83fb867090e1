package sales_api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	purchase_db "ms-landing/internal/purchases/db"
	"ms-landing/internal/sales"
	"ms-landing/internal/sales/sales_api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type failingLister struct{}

func (failingLister) ListPurchases(context.Context, int) ([]models.Purchase, error) {
	return nil, errors.New("database closed")
}

func setup(t *testing.T, guard ...func(http.Handler) http.Handler) (http.Handler, *purchase_db.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	_, err = bunDB.NewCreateTable().Model((*models.Purchase)(nil)).Exec(context.Background())
	require.NoError(t, err)

	purchases := purchase_db.New(bunDB)
	h := sales_api.NewHandler(sales.NewService(bunDB, "UTC"), purchases, logger.NewWithWriter(io.Discard), guard...)

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r, purchases
}

func TestGetSalesReport(t *testing.T) {
	router, purchases := setup(t)
	require.NoError(t, purchases.SavePurchase(context.Background(), &models.Purchase{
		SessionID:   "cs_1",
		Product:     "ebook",
		AmountTotal: 1990,
		Status:      models.PurchaseCompleted,
		PurchasedAt: time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/sales?from=2025-03-01&to=2025-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.SalesReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.TotalSales)
	assert.Equal(t, int64(1990), report.TotalAmount)
	require.Len(t, report.DailySales, 1)
	assert.Equal(t, "2025-03-05", report.DailySales[0].Date)
}

func TestGetSalesReport_InvalidRange(t *testing.T) {
	router, _ := setup(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/sales?from=2025-04-01&to=2025-03-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Período inválido")
}

func TestListPurchases(t *testing.T) {
	router, purchases := setup(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/purchases", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	base := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"cs_a", "cs_b", "cs_c"} {
		require.NoError(t, purchases.SavePurchase(context.Background(), &models.Purchase{
			SessionID:   id,
			Product:     "ebook",
			Status:      models.PurchaseCompleted,
			PurchasedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/purchases?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Purchase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "cs_c", got[0].SessionID)
}

func TestListPurchases_StoreFailure(t *testing.T) {
	h := sales_api.NewHandler(sales.NewService(nil, "UTC"), failingLister{}, logger.NewWithWriter(io.Discard))
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/purchases", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGuardRunsBeforeRoutes(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	}
	router, _ := setup(t, deny)

	for _, path := range []string{"/api/admin/sales", "/api/admin/purchases"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}
