package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/go-users-api/internal/config"
	"github.com/deppfellow/go-users-api/internal/handler"
	"github.com/deppfellow/go-users-api/internal/repository"
	"github.com/deppfellow/go-users-api/internal/server"
	"github.com/deppfellow/go-users-api/internal/service"
	"github.com/labstack/echo/v4"
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

type userBody struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			CORSAllowedOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{
			Driver:          config.DriverSQLite,
			Name:            ":memory:",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 60,
			ConnMaxIdleTime: 60,
		},
		RateLimit: config.RateLimitConfig{
			MaxRequests: 1000,
			Window:      time.Second,
		},
		Observability: config.DefaultObservabilityConfig(),
	}

	logger := zerolog.Nop()
	s, err := server.New(cfg, &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	require.NoError(t, s.DB.Migrate(context.Background()))

	repos := repository.NewRepositories(s)
	services, err := service.NewService(s, repos)
	require.NoError(t, err)

	return NewRouter(s, handler.NewHandlers(s, services))
}

func call(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeUser(t *testing.T, env envelope) userBody {
	t.Helper()
	var u userBody
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u
}

func TestUsersLifecycle(t *testing.T) {
	e := newTestRouter(t)

	rec, env := call(t, e, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No Users found", env.Message)
	assert.JSONEq(t, "null", string(env.Data))

	rec, env = call(t, e, http.MethodPost, "/users", `{"name":"New User","email":"newuser@example.com","age":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "User created successfully", env.Message)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	created := decodeUser(t, env)
	assert.Positive(t, created.ID)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	path := "/users/" + jsonNumber(created.ID)

	rec, env = call(t, e, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User found", env.Message)
	found := decodeUser(t, env)
	assert.Equal(t, created.Name, found.Name)
	assert.Equal(t, created.Email, found.Email)
	assert.Equal(t, created.Age, found.Age)

	rec, env = call(t, e, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Users found", env.Message)
	var list []userBody
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	time.Sleep(2 * time.Millisecond)

	rec, env = call(t, e, http.MethodPatch, path, `{"age":45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully", env.Message)
	updated := decodeUser(t, env)
	assert.Equal(t, 45, updated.Age)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Email, updated.Email)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	rec, env = call(t, e, http.MethodPut, path, `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decodeUser(t, env).Name)

	rec, env = call(t, e, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", env.Message)
	assert.True(t, env.Success)
	assert.JSONEq(t, "null", string(env.Data))

	rec, env = call(t, e, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", env.Message)

	rec, _ = call(t, e, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersEmptyUpdateRefreshesTimestamp(t *testing.T) {
	e := newTestRouter(t)

	rec, env := call(t, e, http.MethodPost, "/users", `{"name":"Quiet User","email":"quiet@example.com","age":28}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, env)
	path := "/users/" + jsonNumber(created.ID)

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			time.Sleep(2 * time.Millisecond)

			// No body and no Content-Type header.
			rec, env := call(t, e, method, path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, env.Success)
			assert.Equal(t, "User updated successfully", env.Message)

			updated := decodeUser(t, env)
			assert.Equal(t, created.Name, updated.Name)
			assert.Equal(t, created.Email, updated.Email)
			assert.Equal(t, created.Age, updated.Age)
			assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
			assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
		})
	}
}

func TestUsersNotFound(t *testing.T) {
	e := newTestRouter(t)

	rec, env := call(t, e, http.MethodPut, "/users/999", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "User not found", env.Message)
	assert.JSONEq(t, "null", string(env.Data))

	rec, _ = call(t, e, http.MethodDelete, "/users/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersDuplicateEmail(t *testing.T) {
	e := newTestRouter(t)

	rec, _ := call(t, e, http.MethodPost, "/users", `{"name":"A","email":"dup@example.com","age":20}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := call(t, e, http.MethodPost, "/users", `{"name":"B","email":"dup@example.com","age":21}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An error occurred while creating user.", env.Message)
	assert.JSONEq(t, "null", string(env.Data))
}

func TestUsersInvalidInput(t *testing.T) {
	e := newTestRouter(t)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		message string
	}{
		{"non-numeric id on get", http.MethodGet, "/users/abc", "", "Invalid user ID format"},
		{"zero id on get", http.MethodGet, "/users/0", "", "Invalid user ID format"},
		{"non-numeric id on delete", http.MethodDelete, "/users/abc", "", "Invalid user ID format"},
		{"non-numeric id on update", http.MethodPut, "/users/abc", `{"age":3}`, "Invalid request data"},
		{"missing name", http.MethodPost, "/users", `{"email":"a@example.com","age":3}`, "Invalid user data"},
		{"bad email", http.MethodPost, "/users", `{"name":"A","email":"nope","age":3}`, "Invalid user data"},
		{"string age", http.MethodPost, "/users", `{"name":"A","email":"a@example.com","age":"3"}`, "Invalid user data"},
		{"malformed json", http.MethodPost, "/users", `{"name":`, "Invalid user data"},
		{"negative age on update", http.MethodPatch, "/users/1", `{"age":-1}`, "Invalid request data"},
		{"empty name on update", http.MethodPatch, "/users/1", `{"name":""}`, "Invalid request data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := call(t, e, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, http.StatusBadRequest, env.StatusCode)
			assert.JSONEq(t, "null", string(env.Data))
		})
	}
}

func TestSystemRoutes(t *testing.T) {
	e := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":{"status":"healthy"`)

	req = httptest.NewRequest(http.MethodGet, "/docs", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	req = httptest.NewRequest(http.MethodGet, "/static/openapi.json", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))

	_, env := call(t, e, http.MethodGet, "/nowhere", "")
	assert.Equal(t, "Route not found", env.Message)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
