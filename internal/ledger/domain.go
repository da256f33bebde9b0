package ledger

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind distinguishes the two fiscal-record flavours.
type RecordKind string

const (
	KindCharge  RecordKind = "charge"
	KindExpense RecordKind = "expense"
)

// Valid reports whether the kind is known.
func (k RecordKind) Valid() bool {
	return k == KindCharge || k == KindExpense
}

// Record is a dated financial transaction: a charge billed to a client or
// an expense registered for one. Its payment date is the input to the
// period-lock policy; while unpaid it carries no restriction.
type Record struct {
	ID           uuid.UUID  `json:"id"`
	AccountantID int64      `json:"-"`
	ClientID     *uuid.UUID `json:"client_id,omitempty"`
	Kind         RecordKind `json:"kind"`
	Description  string     `json:"description"`
	AmountCents  int64      `json:"amount_cents"`
	PaymentDate  *time.Time `json:"payment_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Paid reports whether the record has a payment date.
func (r Record) Paid() bool {
	return r.PaymentDate != nil
}
