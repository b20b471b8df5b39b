package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return NewRouter(Config{Config: cfg, UUID: staticID("generated-cid")})
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, "")

	rec, body := do(t, r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "generated-cid", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_CorrelationIDFromHeader(t *testing.T) {
	r := newTestRouter(t, "")

	rec, _ := do(t, r, http.MethodGet, "/health", "", map[string]string{HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderCorrelationID))

	rec, _ = do(t, r, http.MethodGet, "/health", "", map[string]string{HeaderCorrelationID: "bad value"})
	assert.Equal(t, "generated-cid", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_ErrorCodec(t *testing.T) {
	r := newTestRouter(t, "")
	r.POST("/cooldown", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Please wait before requesting a new OTP", goerror.CodeTooManyRequest,
			goerror.WithReason(goerror.ReasonCooldownActive),
			goerror.WithDetail(goerror.DetailCooldownRemaining, 42),
		)
	})
	r.POST("/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput("Invalid email address", nil, "email", "email is required")
	})
	r.POST("/plain", func(*Request) (any, error) {
		return nil, errors.New("boom")
	})

	rec, body := do(t, r, http.MethodPost, "/cooldown", "{}", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Please wait before requesting a new OTP", body["error"])
	assert.Equal(t, "COOLDOWN_ACTIVE", body["reason"])
	assert.EqualValues(t, 42, body["cooldownRemaining"])

	rec, body = do(t, r, http.MethodPost, "/fields", "{}", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", body["reason"])
	assert.Equal(t, map[string]any{"email": "email is required"}, body["fields"])

	rec, body = do(t, r, http.MethodPost, "/plain", "{}", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }

func TestRouter_OkCodec(t *testing.T) {
	r := newTestRouter(t, "")
	r.POST("/created", func(*Request) (any, error) { return created{ID: "1"}, nil })
	r.POST("/empty", func(*Request) (any, error) { return nil, nil })

	rec, body := do(t, r, http.MethodPost, "/created", "", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", body["id"])

	rec, _ = do(t, r, http.MethodPost, "/empty", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	r := newTestRouter(t, "")

	rec, _ := do(t, r, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, r, http.MethodDelete, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Recover(t *testing.T) {
	r := newTestRouter(t, "")
	r.POST("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec, body := do(t, r, http.MethodPost, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", body["reason"])
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"/blocked\"\n")
	r.POST("/blocked", func(*Request) (any, error) { return map[string]bool{"ok": true}, nil })

	rec, body := do(t, r, http.MethodPost, "/blocked", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "MAINTENANCE", body["reason"])

	rec, _ = do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type in struct {
		Email string `json:"email"`
	}

	r := newTestRouter(t, "")
	r.POST("/decode", func(req *Request) (any, error) {
		var v in
		if err := req.DecodeBody(&v); err != nil {
			return nil, err
		}
		return v, nil
	})

	rec, body := do(t, r, http.MethodPost, "/decode", `{"email":"a@b.co"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.co", body["email"])

	for _, payload := range []string{``, `{`, `{"email":"a@b.co","extra":1}`, `{"email":"a"}{"email":"b"}`} {
		rec, _ = do(t, r, http.MethodPost, "/decode", payload, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	r := newTestRouter(t, "")
	r.POST("/limited", func(*Request) (any, error) { return map[string]bool{"ok": true}, nil }, rl.Middleware())

	for range 2 {
		rec, _ := do(t, r, http.MethodPost, "/limited", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := do(t, r, http.MethodPost, "/limited", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", body["reason"])
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	now = now.Add(time.Second)
	rec, _ = do(t, r, http.MethodPost, "/limited", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	now = now.Add(time.Hour)
	rl.sweep()
	assert.Empty(t, rl.visitors)
}

type stubVerifier struct {
	claims jwt.Claims
	err    error
}

func (s stubVerifier) Generate(string) (string, jwt.Claims, error) { return "", jwt.Claims{}, nil }
func (s stubVerifier) Verify(string) (jwt.Claims, error)           { return s.claims, s.err }

func TestRequireCredential(t *testing.T) {
	handler := func(req *Request) (any, error) {
		return map[string]string{"email": jwt.GetAuth(req.Context()).Email}, nil
	}

	ok := newTestRouter(t, "")
	ok.POST("/secure", handler, RequireCredential(stubVerifier{claims: jwt.Claims{Email: "a@b.co"}}))

	rec, _ := do(t, ok, http.MethodPost, "/secure", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := do(t, ok, http.MethodPost, "/secure", "", map[string]string{"Authorization": "Bearer t"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.co", body["email"])

	expired := newTestRouter(t, "")
	expired.POST("/secure", handler, RequireCredential(stubVerifier{err: jwt.ErrTokenExpired}))

	rec, body = do(t, expired, http.MethodPost, "/secure", "", map[string]string{"Authorization": "Bearer t"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIAL", body["reason"])
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "10.0.0.1", realIP(req, false))
	assert.Equal(t, "203.0.113.7", realIP(req, true))
}
