package service

import (
	"context"
	"net/http"

	"github.com/deppfellow/go-users-api/internal/lib/response"
	"github.com/deppfellow/go-users-api/internal/model"
	"github.com/deppfellow/go-users-api/internal/sqlerr"
	"github.com/rs/zerolog"
)

// UserStore is the storage contract UserService depends on.
// *repository.UserRepository satisfies it.
type UserStore interface {
	FindAll(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, bool, error)
	Create(ctx context.Context, params model.CreateUserParams) (model.User, error)
	Update(ctx context.Context, id int64, params model.UpdateUserParams) (model.User, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// WelcomeSender queues the welcome email for a newly created user.
type WelcomeSender interface {
	EnqueueWelcomeEmail(ctx context.Context, to, name string) error
}

const (
	msgUsersFound   = "Users found"
	msgNoUsers      = "No Users found"
	msgUserFound    = "User found"
	msgUserNotFound = "User not found"
	msgUserCreated  = "User created successfully"
	msgUserUpdated  = "User updated successfully"
	msgUserDeleted  = "User deleted successfully"

	msgRetrieveFailed = "An error occurred while retrieving users."
	msgFindFailed     = "An error occurred while finding user."
	msgCreateFailed   = "An error occurred while creating user."
	msgUpdateFailed   = "An error occurred while updating user."
	msgDeleteFailed   = "An error occurred while deleting user."
)

// UserService turns repository outcomes into envelopes. Storage errors
// stop here: they are logged and replaced by a generic 500 failure.
type UserService struct {
	store   UserStore
	welcome WelcomeSender
	logger  *zerolog.Logger
}

// NewUserService builds the service. welcome may be nil, in which case
// no welcome email is queued on create.
func NewUserService(store UserStore, welcome WelcomeSender, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{
		store:   store,
		welcome: welcome,
		logger:  logger,
	}
}

// log prefers the request-scoped logger carried by ctx.
func (s *UserService) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return s.logger
}

func (s *UserService) logStorageError(ctx context.Context, operation string, id int64, err error) {
	event := s.log(ctx).Error().
		Err(err).
		Str("operation", operation).
		Str("error_code", string(sqlerr.ErrCode(err)))
	if id > 0 {
		event = event.Int64("user_id", id)
	}
	event.Msg("user storage operation failed")
}

func (s *UserService) FindAll(ctx context.Context) response.Response[[]model.UserDTO] {
	users, err := s.store.FindAll(ctx)
	if err != nil {
		s.logStorageError(ctx, "find_all", 0, err)
		return response.Failure[[]model.UserDTO](msgRetrieveFailed, http.StatusInternalServerError)
	}

	if len(users) == 0 {
		return response.Failure[[]model.UserDTO](msgNoUsers, http.StatusNotFound)
	}

	return response.Success(msgUsersFound, model.ToDTOs(users))
}

func (s *UserService) FindByID(ctx context.Context, id int64) response.Response[model.UserDTO] {
	user, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.logStorageError(ctx, "find_by_id", id, err)
		return response.Failure[model.UserDTO](msgFindFailed, http.StatusInternalServerError)
	}

	if !found {
		return response.Failure[model.UserDTO](msgUserNotFound, http.StatusNotFound)
	}

	return response.Success(msgUserFound, user.ToDTO())
}

func (s *UserService) Create(ctx context.Context, params model.CreateUserParams) response.Response[model.UserDTO] {
	user, err := s.store.Create(ctx, params)
	if err != nil {
		s.logStorageError(ctx, "create", 0, err)
		return response.Failure[model.UserDTO](msgCreateFailed, http.StatusInternalServerError)
	}

	s.log(ctx).Info().Int64("user_id", user.ID).Msg("user created")

	if s.welcome != nil {
		if err := s.welcome.EnqueueWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			s.log(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("failed to enqueue welcome email")
		}
	}

	return response.Success(msgUserCreated, user.ToDTO(), http.StatusCreated)
}

func (s *UserService) Update(ctx context.Context, id int64, params model.UpdateUserParams) response.Response[model.UserDTO] {
	user, found, err := s.store.Update(ctx, id, params)
	if err != nil {
		s.logStorageError(ctx, "update", id, err)
		return response.Failure[model.UserDTO](msgUpdateFailed, http.StatusInternalServerError)
	}

	if !found {
		return response.Failure[model.UserDTO](msgUserNotFound, http.StatusNotFound)
	}

	return response.Success(msgUserUpdated, user.ToDTO())
}

func (s *UserService) Delete(ctx context.Context, id int64) response.Response[response.Nothing] {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logStorageError(ctx, "delete", id, err)
		return response.Failure[response.Nothing](msgDeleteFailed, http.StatusInternalServerError)
	}

	if !deleted {
		return response.Failure[response.Nothing](msgUserNotFound, http.StatusNotFound)
	}

	return response.Success(msgUserDeleted, response.Nothing{})
}
