package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesCategoryAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Info("webhook", "event received")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[WEBHOOK")
	assert.Contains(t, out, "event received")
}

func TestLogger_SetLevelDropsLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.SetLevel("warn")

	l.Debug("APP", "debug line")
	l.Info("APP", "info line")
	l.Warn("APP", "warn line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
}

func TestLogger_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l := New("landing", dir)
	l.Error("CHECKOUT", "stripe unavailable")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "landing-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), `"category":"CHECKOUT"`))
	assert.True(t, strings.Contains(string(content), `"level":"ERROR"`))
}

func TestLogger_CloseWhileLogging(t *testing.T) {
	dir := t.TempDir()
	l := New("landing", dir)
	l.out = io.Discard

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Info("WORKER", fmt.Sprintf("worker %d line %d", n, j))
			}
		}(i)
	}
	l.Close()
	wg.Wait()
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "landing-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "torn line %q", scanner.Text())
	}
	require.NoError(t, scanner.Err())
}

func TestMiddleware_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/promo", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "GET /api/promo - 418")
}
