package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Generate(string, string, string) (string, error) { return "", nil }

func (stubVerifier) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{RegisteredClaims: libJWT.RegisteredClaims{Subject: "user-1"}, Email: "ana@safex.test"}, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	r := NewRouter(Config{
		Config:     cfg,
		UUID:       fixedID("cid-1"),
		JWT:        stubVerifier{},
		Instrument: instrument.NewNoop(),
		Public:     map[string][]string{http.MethodPost: {"/open"}},
	})

	r.POST("/whoami", func(req *Request) (any, error) {
		return map[string]string{"sub": jwt.GetAuth(req.Context()).Subject}, nil
	})
	r.POST("/open", func(*Request) (any, error) { return nil, nil })
	r.POST("/boom", func(*Request) (any, error) { return nil, errors.New("pq: connection refused") })
	r.POST("/busy", func(*Request) (any, error) {
		return nil, goerror.NewBusinessCause(errors.New("locked"), "Try later", goerror.CodeTooManyRequest, "retryAfterMinutes", "15")
	})
	r.POST("/panic", func(*Request) (any, error) { panic("kaboom") })

	return r
}

func serve(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestChain(t *testing.T) {
	// Arrange
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mw("outer"), nil, mw("inner"))

	// Act
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// Assert
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRouter_Authentication(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: test\n")

	rec, body := serve(r, http.MethodPost, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", body["message"])

	rec, body = serve(r, http.MethodPost, "/whoami", "bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])

	rec, body = serve(r, http.MethodPost, "/whoami", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"sub": "user-1"}, body["data"])
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))

	rec, _ = serve(r, http.MethodPost, "/open", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_Envelopes(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: test\n")

	t.Run("Welcome", func(t *testing.T) {
		rec, body := serve(r, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome to SafeX API", body["message"])
	})

	t.Run("NotFound", func(t *testing.T) {
		rec, body := serve(r, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "endpoint not found", body["message"])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rec, _ := serve(r, http.MethodGet, "/whoami", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("InternalErrorHidden", func(t *testing.T) {
		rec, body := serve(r, http.MethodPost, "/boom", "good")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["message"])
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("BusinessFields", func(t *testing.T) {
		rec, body := serve(r, http.MethodPost, "/busy", "good")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "Try later", body["message"])
		assert.Equal(t, map[string]any{"retryAfterMinutes": "15"}, body["error"])
	})

	t.Run("PanicRecovered", func(t *testing.T) {
		rec, body := serve(r, http.MethodPost, "/panic", "good")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["message"])
	})
}

func TestRouter_Maintenance(t *testing.T) {
	t.Run("Global", func(t *testing.T) {
		r := newTestRouter(t, "app:\n  maintenance:\n    enabled: true\n")

		rec, body := serve(r, http.MethodPost, "/whoami", "good")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "service is under maintenance", body["message"])

		rec, _ = serve(r, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Endpoints", func(t *testing.T) {
		r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: /open\n")

		rec, _ := serve(r, http.MethodPost, "/open", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		rec, _ = serve(r, http.MethodPost, "/whoami", "good")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "TrueClientIP", headers: map[string]string{"True-Client-IP": "203.0.113.9"}, remote: "10.0.0.1:5000", want: "203.0.113.9"},
		{name: "ForwardedFirstHop", headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.2"}, remote: "10.0.0.1:5000", want: "198.51.100.4"},
		{name: "InvalidHeaderFallsBack", headers: map[string]string{"X-Real-IP": "not-an-ip"}, remote: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "Nothing", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "abc-123", correlationID("  abc-123 "))
	assert.Empty(t, correlationID("has space"))
	assert.Empty(t, correlationID("line\nbreak"))
	assert.Empty(t, correlationID(strings.Repeat("a", maxCorrelationIDLen+1)))

	r := newTestRouter(t, "app:\n  env: test\n")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderCorrelationID))
}
