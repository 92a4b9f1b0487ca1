// Package repository handles all interactions with the database.
//
// It holds the gorm queries that fetch, persist and update rows,
// keeping storage details away from the service layer.
package repository

import (
	"github.com/deppfellow/go-users-api/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Users *UserRepository
}

// NewRepositories constructs the repository container on top of the
// server's database handle.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Users: NewUserRepository(s.DB.ORM),
	}
}
