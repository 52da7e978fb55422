package user

import (
	"strings"
	"time"
)

// Roles. Prefix style allows finer sub-roles (e.g. "admin:owner") to satisfy
// a check for the "admin:" family.
const (
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	RoleInstructor = "instructor:"

	RoleStudent = "student:"

	RoleParent = "parent:"
)

var (
	AdminRoles      = []string{RoleAdmin, RoleAdminOwner}
	InstructorRoles = []string{RoleInstructor}
	StudentRoles    = []string{RoleStudent}
	ParentRoles     = []string{RoleParent}
)

// User is the authenticated actor supplied by the auth middleware. Credentials
// and session handling live outside this module.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool      { return u.RoleStartsWith(RoleAdmin) }
func (u User) IsInstructor() bool { return u.RoleStartsWith(RoleInstructor) }
func (u User) IsStudent() bool    { return u.RoleStartsWith(RoleStudent) }
func (u User) IsParent() bool     { return u.RoleStartsWith(RoleParent) }
