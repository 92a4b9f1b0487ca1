package model

import "github.com/deppfellow/go-users-api/internal/validation"

// ListUsersRequest carries no input; it exists so GET /users goes through
// the same handler pipeline as every other route.
type ListUsersRequest struct{}

func (r *ListUsersRequest) Validate() error {
	return nil
}

// GetUserRequest is GET /users/:id.
type GetUserRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetUserRequest) Validate() error {
	return validation.Struct(r)
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=1"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"required,gt=0"`
}

func (r *CreateUserRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateUserRequest) ToParams() CreateUserParams {
	return CreateUserParams{
		Name:  r.Name,
		Email: r.Email,
		Age:   r.Age,
	}
}

// UpdateUserRequest is PUT/PATCH /users/:id. Every body field is
// optional; an empty body is a valid update that only refreshes
// updatedAt.
type UpdateUserRequest struct {
	ID    int64   `param:"id" json:"-" validate:"required,gt=0"`
	Name  *string `json:"name" validate:"omitnil,min=1"`
	Email *string `json:"email" validate:"omitnil,email"`
	Age   *int    `json:"age" validate:"omitnil,gt=0"`
}

func (r *UpdateUserRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateUserRequest) ToParams() UpdateUserParams {
	return UpdateUserParams{
		Name:  r.Name,
		Email: r.Email,
		Age:   r.Age,
	}
}

// DeleteUserRequest is DELETE /users/:id.
type DeleteUserRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *DeleteUserRequest) Validate() error {
	return validation.Struct(r)
}
