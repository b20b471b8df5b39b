package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCORS_Preflight(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(""))
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := withCORS(cfg, next)

	preflight := func(headers string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/contact/otp/issue", nil)
		req.Header.Set("Origin", "https://site.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", headers)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed headers are reflected", func(t *testing.T) {
		rec := preflight("authorization,content-type")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		allowed := strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Contains(t, allowed, "content-type")
		assert.Contains(t, allowed, "authorization")
		assert.NotContains(t, allowed, "apikey", "only requested headers are echoed")
	})

	t.Run("unknown header fails the preflight", func(t *testing.T) {
		rec := preflight("content-type,x-unknown")

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("simple request reaches the router", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://site.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	})
}
