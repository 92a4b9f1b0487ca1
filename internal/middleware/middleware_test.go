package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/go-users-api/internal/config"
	"github.com/deppfellow/go-users-api/internal/errs"
	"github.com/deppfellow/go-users-api/internal/server"
	"github.com/deppfellow/go-users-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"statusCode"`
}

func newTestServer(logs *bytes.Buffer, maxRequests int) *server.Server {
	logger := zerolog.New(logs)
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				CORSAllowedOrigins: []string{"*"},
			},
			RateLimit: config.RateLimitConfig{
				MaxRequests: maxRequests,
				Window:      time.Minute,
			},
		},
		Logger: &logger,
	}
}

func newTestEcho(s *server.Server) *echo.Echo {
	m := NewMiddlewares(s)

	e := echo.New()
	e.HTTPErrorHandler = m.Global.GlobalErrorHandler
	e.Use(
		m.RateLimit.Limit(),
		RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
	)
	return e
}

func do(e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestGlobalErrorHandler(t *testing.T) {
	logs := &bytes.Buffer{}
	e := newTestEcho(newTestServer(logs, 100))

	e.GET("/http-error", func(c echo.Context) error {
		return errs.NewBadRequestError("bad thing", true, nil, nil)
	})
	e.GET("/unique", func(c echo.Context) error {
		return errors.WithStack(&sqlerr.Error{
			Code:           sqlerr.UniqueViolation,
			Severity:       sqlerr.SeverityError,
			TableName:      "users",
			ConstraintName: "users_email_key",
		})
	})
	e.GET("/plain", func(c echo.Context) error {
		return errors.New("secret connection string leaked")
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("boom")
	})

	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		message string
	}{
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, "Route not found"},
		{"method not allowed", http.MethodDelete, "/plain", http.StatusMethodNotAllowed, "Method not allowed"},
		{"http error", http.MethodGet, "/http-error", http.StatusBadRequest, "bad thing"},
		{"classified storage error", http.MethodGet, "/unique", http.StatusBadRequest, "A User with this Email already exists"},
		{"unknown error", http.MethodGet, "/plain", http.StatusInternalServerError, "Internal Server Error"},
		{"panic", http.MethodGet, "/panic", http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(e, tt.method, tt.target)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.status, body.StatusCode)
			assert.JSONEq(t, "null", string(body.Data))
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}

	assert.Contains(t, logs.String(), "secret connection string leaked")
}

func TestRequestID(t *testing.T) {
	e := newTestEcho(newTestServer(&bytes.Buffer{}, 100))
	e.GET("/id", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	rec, _ := do(e, http.MethodGet, "/id")
	generated := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-id", rec.Body.String())
}

func TestEnhanceContext_LoggerInRequestContext(t *testing.T) {
	logs := &bytes.Buffer{}
	e := newTestEcho(newTestServer(logs, 100))
	e.GET("/log", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("from context")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, logs.String(), `"request_id":"req-42"`)
	assert.Contains(t, logs.String(), `"path":"/log"`)
	assert.Contains(t, logs.String(), "from context")
}

func TestGetLogger_WithoutEnhancer(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NotNil(t, GetLogger(c))
}

func TestRateLimit_MemoryStore(t *testing.T) {
	e := newTestEcho(newTestServer(&bytes.Buffer{}, 2))
	e.GET("/limited", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		rec, _ := do(e, http.MethodGet, "/limited")
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec, body := do(e, http.MethodGet, "/limited")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)
}

func TestRedisStore_KeyIsPerWindow(t *testing.T) {
	store := newRedisStore(nil, 10, time.Minute, nil)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base.Add(10 * time.Second) }
	first := store.key("10.0.0.1")

	store.now = func() time.Time { return base.Add(50 * time.Second) }
	assert.Equal(t, first, store.key("10.0.0.1"))
	assert.NotEqual(t, first, store.key("10.0.0.2"))

	store.now = func() time.Time { return base.Add(70 * time.Second) }
	assert.NotEqual(t, first, store.key("10.0.0.1"))
}
