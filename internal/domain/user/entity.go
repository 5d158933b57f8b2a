package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the acting principal's role
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleFactoryManager Role = "factory_manager"
	RoleDriver         Role = "driver"
	RoleBuyer          Role = "buyer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFactoryManager, RoleDriver, RoleBuyer:
		return true
	}
	return false
}

// User represents a principal known to the system
type User struct {
	ID        uuid.UUID
	CompanyID *uuid.UUID
	Email     string
	FullName  string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
