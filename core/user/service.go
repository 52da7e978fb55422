package user

import (
	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("user not found")
)

type (
	Repository interface {
		CreateUser(usr User) (User, error)
		GetUserByID(id string) (User, error)
		QueryAllUsers() ([]User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

// Require checks that the actor is active and holds at least one of the given
// role families. Every service operation calls this once at entry.
func Require(actor User, rolePrefixes ...string) error {
	if !actor.IsActive {
		return core.NewForbiddenError("account is inactive")
	}
	for _, prefix := range rolePrefixes {
		if actor.RoleStartsWith(prefix) {
			return nil
		}
	}
	return core.NewForbiddenError("operation not permitted for this role")
}
