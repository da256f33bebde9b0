package bindings

import (
	"time"

	"github.com/google/uuid"
)

// Binding links one client to one obligation definition. Its creation
// timestamp anchors the earliest competence the instance generator will
// produce. At most one active binding may exist per (client, obligation)
// pair; deactivated bindings are kept for history.
type Binding struct {
	ID           uuid.UUID      `json:"id"`
	AccountantID int64          `json:"-"`
	ClientID     uuid.UUID      `json:"client_id"`
	ObligationID uuid.UUID      `json:"obligation_id"`
	IsActive     bool           `json:"is_active"`
	Params       map[string]any `json:"params,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
