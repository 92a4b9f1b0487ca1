package handler

import (
	"context"

	"github.com/deppfellow/go-users-api/internal/lib/response"
	"github.com/deppfellow/go-users-api/internal/model"
	"github.com/deppfellow/go-users-api/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	msgInvalidID      = "Invalid user ID format"
	msgInvalidUser    = "Invalid user data"
	msgInvalidRequest = "Invalid request data"
)

// UserService is what the user routes need from the service layer.
// *service.UserService satisfies it.
type UserService interface {
	FindAll(ctx context.Context) response.Response[[]model.UserDTO]
	FindByID(ctx context.Context, id int64) response.Response[model.UserDTO]
	Create(ctx context.Context, params model.CreateUserParams) response.Response[model.UserDTO]
	Update(ctx context.Context, id int64, params model.UpdateUserParams) response.Response[model.UserDTO]
	Delete(ctx context.Context, id int64) response.Response[response.Nothing]
}

type UserHandler struct {
	Handler
	users UserService
}

func NewUserHandler(s *server.Server, users UserService) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(s),
		users:   users,
	}
}

func (h *UserHandler) ListUsers() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, _ *model.ListUsersRequest) response.Response[[]model.UserDTO] {
		return h.users.FindAll(c.Request().Context())
	}, msgInvalidRequest, func() *model.ListUsersRequest { return &model.ListUsersRequest{} })
}

func (h *UserHandler) GetUser() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *model.GetUserRequest) response.Response[model.UserDTO] {
		return h.users.FindByID(c.Request().Context(), req.ID)
	}, msgInvalidID, func() *model.GetUserRequest { return &model.GetUserRequest{} })
}

func (h *UserHandler) CreateUser() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *model.CreateUserRequest) response.Response[model.UserDTO] {
		return h.users.Create(c.Request().Context(), req.ToParams())
	}, msgInvalidUser, func() *model.CreateUserRequest { return &model.CreateUserRequest{} })
}

func (h *UserHandler) UpdateUser() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *model.UpdateUserRequest) response.Response[model.UserDTO] {
		return h.users.Update(c.Request().Context(), req.ID, req.ToParams())
	}, msgInvalidRequest, func() *model.UpdateUserRequest { return &model.UpdateUserRequest{} })
}

func (h *UserHandler) DeleteUser() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *model.DeleteUserRequest) response.Response[response.Nothing] {
		return h.users.Delete(c.Request().Context(), req.ID)
	}, msgInvalidID, func() *model.DeleteUserRequest { return &model.DeleteUserRequest{} })
}
