package model

import (
	"time"

	"ev-marketplace/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSeller Role = "seller"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// Account is the caller identity passed explicitly into every use case.
type Account struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
}

func NewAccount(id, email string, role Role) (*Account, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch role {
	case RoleSeller, RoleStaff, RoleAdmin:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Account{ID: id, Email: email, Role: role, CreatedAt: time.Now()}, nil
}

func (a *Account) IsZero() bool { return a == nil || a.ID == "" }

// CanVerify reports whether the account may approve or reject listings.
func (a *Account) CanVerify() bool {
	return a != nil && (a.Role == RoleStaff || a.Role == RoleAdmin)
}
