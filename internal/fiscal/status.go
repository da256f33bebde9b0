package fiscal

import "time"

// Status enumerates the lifecycle states of an obligation instance.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDueSoon    Status = "due_48h"
	StatusOverdue    Status = "overdue"
	StatusOnTimeDone Status = "on_time_done"
	StatusLateDone   Status = "late_done"
)

// dueSoonWindow is how far ahead of the internal target an instance is
// flagged as approaching its deadline.
const dueSoonWindow = 48 * time.Hour

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// Terminal reports whether the status is final. Terminal statuses are set
// only by an explicit completion action and are never recomputed.
func (s Status) Terminal() bool {
	return s == StatusOnTimeDone || s == StatusLateDone
}

// StatusInfo carries display metadata for a status.
type StatusInfo struct {
	Label string
	Tone  string
}

var statusTable = map[Status]StatusInfo{
	StatusPending:    {Label: "Pendente", Tone: "neutral"},
	StatusDueSoon:    {Label: "Vence em 48h", Tone: "warning"},
	StatusOverdue:    {Label: "Atrasada", Tone: "danger"},
	StatusOnTimeDone: {Label: "Concluída no prazo", Tone: "success"},
	StatusLateDone:   {Label: "Concluída com atraso", Tone: "caution"},
}

// Info returns display metadata for the status.
func (s Status) Info() StatusInfo {
	return statusTable[s]
}

// EffectiveStatus recomputes the real-time status of an instance from its
// stored status and internal target date. Terminal stored statuses are
// returned untouched. For the rest the stored value is deliberately ignored:
// it is only refreshed periodically by the batch refresher and may be stale
// between runs.
func EffectiveStatus(stored Status, internalTarget, now time.Time) Status {
	if stored.Terminal() {
		return stored
	}
	if DateOnly(internalTarget).Before(DateOnly(now)) {
		return StatusOverdue
	}
	if remaining := internalTarget.Sub(now); remaining >= 0 && remaining <= dueSoonWindow {
		return StatusDueSoon
	}
	return StatusPending
}

// CompletionStatus picks the terminal status for a completion action: on
// time when completed at or before the due date, late otherwise.
func CompletionStatus(dueDate, completedAt time.Time) Status {
	if DateOnly(completedAt).After(DateOnly(dueDate)) {
		return StatusLateDone
	}
	return StatusOnTimeDone
}
