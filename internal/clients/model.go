package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is a psychologist served by an accountant.
type Client struct {
	ID           uuid.UUID  `json:"id"`
	AccountantID int64      `json:"-"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Document     string     `json:"document"`
	Phone        string     `json:"phone,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Active reports whether the client has not been archived.
func (c Client) Active() bool {
	return c.ArchivedAt == nil
}
