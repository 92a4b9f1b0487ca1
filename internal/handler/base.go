// Package handler is the HTTP layer: it binds and validates requests,
// calls the service layer and writes the envelope it gets back.
package handler

import (
	"net/http"
	"time"

	"github.com/deppfellow/go-users-api/internal/lib/response"
	"github.com/deppfellow/go-users-api/internal/middleware"
	"github.com/deppfellow/go-users-api/internal/server"
	"github.com/deppfellow/go-users-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Handler holds shared application dependencies for concrete handlers.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives a bound, validated request
// and returns the envelope to write.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) response.Response[Res]

// handleRequest is the pipeline every typed endpoint runs through:
// bind + validate, call, write. A request that fails binding or
// validation is answered with a 400 envelope carrying invalidMessage and
// never reaches fn; the detail only goes to the log and New Relic.
func handleRequest[Req validation.Validatable, Res any](
	c echo.Context,
	req Req,
	fn HandlerFunc[Req, Res],
	invalidMessage string,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", "handler").
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)

		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}

		return c.JSON(http.StatusBadRequest, response.Failure[Res](invalidMessage, http.StatusBadRequest))
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	handlerStart := time.Now()
	resp := fn(c, req)
	handlerDuration := time.Since(handlerStart)
	totalDuration := time.Since(start)

	if txn != nil {
		status := "success"
		if !resp.Success() {
			status = "failure"
		}
		txn.AddAttribute("handler.status", status)
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
	}

	logger.Info().
		Bool("success", resp.Success()).
		Int("status", resp.StatusCode()).
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed")

	return c.JSON(resp.StatusCode(), resp)
}

// Handle wraps fn in the request pipeline and returns a route handler.
// newReq builds a fresh request value per call, since echo binds into it.
//
//	g.POST("", handler.Handle(h, users.CreateUser, "Invalid user data", func() *model.CreateUserRequest {
//		return &model.CreateUserRequest{}
//	}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	fn HandlerFunc[Req, Res],
	invalidMessage string,
	newReq func() Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newReq(), fn, invalidMessage)
	}
}
