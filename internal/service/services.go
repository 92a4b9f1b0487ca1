// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives
// validated data from the handler, calls repository methods and wraps
// their outcome in a response envelope.
package service

import (
	"github.com/deppfellow/go-users-api/internal/lib/job"
	"github.com/deppfellow/go-users-api/internal/repository"
	"github.com/deppfellow/go-users-api/internal/server"
)

type Services struct {
	User *UserService
	Job  *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var welcome WelcomeSender
	if s.Job != nil && s.Config.Integration.EmailEnabled() {
		welcome = s.Job
	}

	return &Services{
		User: NewUserService(repos.Users, welcome, s.Logger),
		Job:  s.Job,
	}, nil
}
