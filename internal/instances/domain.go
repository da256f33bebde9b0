package instances

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/fiscal"
)

// Instance is one concrete occurrence of a client's obligation for one
// competence month. Instances are only ever accumulated, never deleted.
type Instance struct {
	ID                 uuid.UUID     `json:"id"`
	AccountantID       int64         `json:"-"`
	ClientID           uuid.UUID     `json:"client_id"`
	ObligationID       uuid.UUID     `json:"obligation_id"`
	Competence         string        `json:"competence"`
	DueDate            time.Time     `json:"due_date"`
	InternalTargetDate time.Time     `json:"internal_target_date"`
	Status             fiscal.Status `json:"status"`
	// EffectiveStatus is recomputed on every read and overrides Status for
	// non-terminal states, since the stored value is only refreshed
	// periodically by the batch job.
	EffectiveStatus fiscal.Status `json:"effective_status,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	NotifiedDueDay  bool          `json:"notified_due_day"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ActiveBinding is the generator's view of one active client-obligation
// link, joined with the obligation's recurrence rules.
type ActiveBinding struct {
	AccountantID      int64
	ClientID          uuid.UUID
	ObligationID      uuid.UUID
	BindingCreatedAt  time.Time
	Frequency         fiscal.Frequency
	InternalTargetDay int
	LegalDueDay       *int
}

// DueNotice is one instance due today whose accountant has not yet been
// notified.
type DueNotice struct {
	InstanceID      uuid.UUID
	AccountantEmail string
	AccountantName  string
	ClientName      string
	ObligationName  string
	Competence      string
	DueDate         time.Time
}

// GenerateResult summarises one generator run.
type GenerateResult struct {
	BindingsSeen int `json:"bindings_seen"`
	Created      int `json:"created"`
	Failed       int `json:"failed"`
}

// RefreshResult summarises one refresher run, per transition.
type RefreshResult struct {
	MarkedDueSoon int `json:"marked_due_soon"`
	MarkedOverdue int `json:"marked_overdue"`
}

// ErrAlreadyCompleted is returned when completing an instance that already
// reached a terminal status.
var ErrAlreadyCompleted = errors.New("instances: already completed")
