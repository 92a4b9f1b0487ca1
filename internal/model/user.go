// Package model holds the User entity, its transfer shape and the
// request payloads accepted by the user routes.
package model

import "time"

// User is the persisted row of the users table.
//
// CreatedAt and UpdatedAt are filled by gorm from the connection's NowFunc
// on insert, so both hold the same instant for a fresh row.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(255);not null"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex:users_email_key"`
	Age       int       `gorm:"column:age;not null;check:users_age_check,age > 0"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (User) TableName() string {
	return "users"
}

// UserDTO is the client-facing shape of a User.
type UserDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) ToDTO() UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToDTOs maps users in order.
func ToDTOs(users []User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToDTO())
	}
	return out
}

// CreateUserParams is the repository input for a new user.
type CreateUserParams struct {
	Name  string
	Email string
	Age   int
}

// UpdateUserParams is a partial update; nil fields are left untouched.
type UpdateUserParams struct {
	Name  *string
	Email *string
	Age   *int
}

// Empty reports whether no field is set.
func (p UpdateUserParams) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Age == nil
}
