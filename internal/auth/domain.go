package auth

import (
	"errors"
	"time"
)

// Accountant represents a contador account, the tenant owner of every
// client, obligation and fiscal record.
type Accountant struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")
