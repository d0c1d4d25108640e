package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Organization string    `json:"organization,omitempty" db:"organization"`
	Role         Role      `json:"role" db:"role"`
	Base
}

// Actor is the authenticated identity performing an action
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NormalizeEmail lowercases and trims an address before storage or lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=50"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	Organization string `json:"organization" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      *User  `json:"user"`
}

type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// UserFilter narrows admin user listings
type UserFilter struct {
	Role *Role
	Pagination
}

// UserStats summarizes one account's submissions
type UserStats struct {
	TotalEvents     int       `json:"totalEvents"`
	PendingEvents   int       `json:"pendingEvents"`
	ApprovedEvents  int       `json:"approvedEvents"`
	CompletedEvents int       `json:"completedEvents"`
	DeniedEvents    int       `json:"deniedEvents"`
	MemberSince     time.Time `json:"memberSince"`
}
