// Package router builds the echo instance: middleware chain, error
// handler and route table.
package router

import (
	"github.com/deppfellow/go-users-api/internal/handler"
	"github.com/deppfellow/go-users-api/internal/middleware"
	"github.com/deppfellow/go-users-api/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter returns the fully wired echo instance.
//
// Middleware order matters: the rate limiter rejects early, the request
// id must exist before the tracing and context enhancers read it, and
// Recover sits innermost so panics reach the global error handler.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	m := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = m.Global.GlobalErrorHandler

	router.Use(
		m.RateLimit.Limit(),
		m.Global.CORS(),
		m.Global.Secure(),
		middleware.RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
	)

	registerSystemRoutes(router, h)
	registerUserRoutes(router, h)

	return router
}
