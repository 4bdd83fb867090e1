package promo_api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	"ms-landing/internal/promo"
	"ms-landing/internal/promo/promo_api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 11, 28, 12, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, clock func() time.Time) http.Handler {
	countdown, err := promo.NewCountdown("2025-11-28T12:00:03Z", "America/Sao_Paulo")
	require.NoError(t, err)

	h := promo_api.NewHandler(countdown, logger.NewWithWriter(io.Discard))
	h.Interval = time.Millisecond
	h.Now = clock

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func TestGetPromo(t *testing.T) {
	router := newRouter(t, func() time.Time { return start.Add(-26 * time.Hour) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/promo", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.PromoStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, int64(1), status.Days)
	assert.Equal(t, int64(2), status.Hours)
	assert.Equal(t, int64(0), status.Minutes)
	assert.Equal(t, int64(3), status.Seconds)
	assert.False(t, status.Expired)
}

func TestStreamPromo_TicksUntilExpired(t *testing.T) {
	now := start
	router := newRouter(t, func() time.Time {
		current := now
		now = now.Add(time.Second)
		return current
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/promo/stream", nil))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: tick\n"))
	assert.Equal(t, 1, strings.Count(body, "event: expired\n"))
	assert.True(t, strings.HasSuffix(body, "\"expired\":true}\n\n"))
}
