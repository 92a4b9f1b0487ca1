package router

import (
	"github.com/deppfellow/go-users-api/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerUserRoutes(r *echo.Echo, h *handler.Handlers) {
	users := r.Group("/users")

	users.GET("", h.User.ListUsers())
	users.POST("", h.User.CreateUser())
	users.GET("/:id", h.User.GetUser())
	users.PUT("/:id", h.User.UpdateUser())
	users.PATCH("/:id", h.User.UpdateUser())
	users.DELETE("/:id", h.User.DeleteUser())
}
