package obligations

import (
	"time"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/fiscal"
)

// Obligation is a named fiscal duty template owned by an accountant, e.g.
// DAS, carnê-leão or the annual income declaration.
type Obligation struct {
	ID                uuid.UUID        `json:"id"`
	AccountantID      int64            `json:"-"`
	Name              string           `json:"name"`
	Frequency         fiscal.Frequency `json:"frequency"`
	InternalTargetDay int              `json:"internal_target_day"`
	LegalDueDay       *int             `json:"legal_due_day,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	ArchivedAt        *time.Time       `json:"archived_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Active reports whether the obligation has not been archived.
func (o Obligation) Active() bool {
	return o.ArchivedAt == nil
}
