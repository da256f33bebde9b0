package instances

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/declara-psi/declara-psi/internal/fiscal"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

type instanceKey struct {
	client     uuid.UUID
	obligation uuid.UUID
	competence string
}

type memoryRepo struct {
	bindings    []ActiveBinding
	instances   map[instanceKey]*Instance
	insertCalls int
	notified    []uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{instances: map[instanceKey]*Instance{}}
}

func (r *memoryRepo) all() []*Instance {
	out := make([]*Instance, 0, len(r.instances))
	for _, in := range r.instances {
		out = append(out, in)
	}
	return out
}

func (r *memoryRepo) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Instance, int, error) {
	var out []Instance
	for _, in := range r.all() {
		if in.AccountantID != accountantID {
			continue
		}
		if filters.Competence != "" && in.Competence != filters.Competence {
			continue
		}
		out = append(out, *in)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Instance, error) {
	for _, in := range r.all() {
		if in.ID == id && in.AccountantID == accountantID {
			return *in, nil
		}
	}
	return Instance{}, httpx.ErrNotFound
}

func (r *memoryRepo) Complete(ctx context.Context, accountantID int64, id uuid.UUID, status fiscal.Status, completedAt time.Time) error {
	for _, in := range r.all() {
		if in.ID == id && in.AccountantID == accountantID {
			if in.Status.Terminal() {
				return ErrAlreadyCompleted
			}
			in.Status = status
			in.CompletedAt = &completedAt
			return nil
		}
	}
	return ErrAlreadyCompleted
}

func (r *memoryRepo) ActiveBindings(ctx context.Context) ([]ActiveBinding, error) {
	return r.bindings, nil
}

func (r *memoryRepo) InsertBatch(ctx context.Context, batch []Instance) (int, error) {
	r.insertCalls++
	created := 0
	for _, in := range batch {
		key := instanceKey{client: in.ClientID, obligation: in.ObligationID, competence: in.Competence}
		if _, exists := r.instances[key]; exists {
			continue
		}
		copied := in
		r.instances[key] = &copied
		created++
	}
	return created, nil
}

// MarkDueSoon and MarkOverdue mirror the SQL window conditions: strictly
// after now for due-soon, strictly before now for overdue. Keeping the
// windows disjoint is part of the refresher contract.
func (r *memoryRepo) MarkDueSoon(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for _, in := range r.all() {
		if in.Status == fiscal.StatusPending && in.DueDate.After(now) && !in.DueDate.After(now.Add(48*time.Hour)) {
			in.Status = fiscal.StatusDueSoon
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for _, in := range r.all() {
		if (in.Status == fiscal.StatusPending || in.Status == fiscal.StatusDueSoon) && in.DueDate.Before(now) {
			in.Status = fiscal.StatusOverdue
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) DueForNotification(ctx context.Context, now time.Time) ([]DueNotice, error) {
	var out []DueNotice
	for _, in := range r.all() {
		if in.DueDate.Equal(fiscal.DateOnly(now)) && !in.NotifiedDueDay && !in.Status.Terminal() {
			out = append(out, DueNotice{InstanceID: in.ID, Competence: in.Competence, DueDate: in.DueDate})
		}
	}
	return out, nil
}

func (r *memoryRepo) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	r.notified = append(r.notified, ids...)
	for _, in := range r.all() {
		for _, id := range ids {
			if in.ID == id {
				in.NotifiedDueDay = true
			}
		}
	}
	return nil
}

var _ Repository = (*memoryRepo)(nil)

func newTestService(repo Repository, now time.Time) *Service {
	svc := NewService(repo, slog.Default(), 12)
	svc.WithNow(func() time.Time { return now })
	return svc
}

func intPtr(v int) *int { return &v }

func TestGenerateEndToEnd(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	repo.bindings = []ActiveBinding{{
		AccountantID:      1,
		ClientID:          uuid.New(),
		ObligationID:      uuid.New(),
		BindingCreatedAt:  now,
		Frequency:         fiscal.FrequencyMonthly,
		InternalTargetDay: 10,
		LegalDueDay:       intPtr(15),
	}}
	svc := newTestService(repo, now)

	result, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.BindingsSeen)
	require.Equal(t, 13, result.Created)
	require.Zero(t, result.Failed)

	key := instanceKey{client: repo.bindings[0].ClientID, obligation: repo.bindings[0].ObligationID, competence: "01/2025"}
	first, ok := repo.instances[key]
	require.True(t, ok, "expected instance for competence 01/2025")
	require.Equal(t, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), first.DueDate)
	require.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), first.InternalTargetDate)
	require.Equal(t, fiscal.StatusPending, first.Status)
	require.False(t, first.NotifiedDueDay)
}

func TestGenerateIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	repo.bindings = []ActiveBinding{{
		AccountantID:      1,
		ClientID:          uuid.New(),
		ObligationID:      uuid.New(),
		BindingCreatedAt:  now,
		Frequency:         fiscal.FrequencyMonthly,
		InternalTargetDay: 10,
	}}
	svc := newTestService(repo, now)

	first, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Positive(t, first.Created)

	second, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Zero(t, second.Created, "second run must not create duplicates")
}

func TestGenerateIsolatesBindingFailures(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	good := ActiveBinding{
		AccountantID:      1,
		ClientID:          uuid.New(),
		ObligationID:      uuid.New(),
		BindingCreatedAt:  now,
		Frequency:         fiscal.FrequencyMonthly,
		InternalTargetDay: 10,
	}
	broken := good
	broken.ClientID = uuid.New()
	broken.Frequency = fiscal.Frequency("daily")
	repo.bindings = []ActiveBinding{broken, good}
	svc := newTestService(repo, now)

	result, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 13, result.Created)
}

func TestGenerateAnnualOnlyAnchorMonth(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	repo.bindings = []ActiveBinding{{
		AccountantID:      1,
		ClientID:          uuid.New(),
		ObligationID:      uuid.New(),
		BindingCreatedAt:  now,
		Frequency:         fiscal.FrequencyAnnual,
		InternalTargetDay: 5,
	}}
	svc := newTestService(repo, now)

	result, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	for key := range repo.instances {
		require.Contains(t, []string{"04/2025", "04/2026"}, key.competence)
	}
}

func seedInstance(repo *memoryRepo, status fiscal.Status, due time.Time) *Instance {
	in := &Instance{
		ID:                 uuid.New(),
		AccountantID:       1,
		ClientID:           uuid.New(),
		ObligationID:       uuid.New(),
		Competence:         "01/2025",
		DueDate:            due,
		InternalTargetDate: due.AddDate(0, 0, -5),
		Status:             status,
	}
	repo.instances[instanceKey{client: in.ClientID, obligation: in.ObligationID, competence: in.Competence}] = in
	return in
}

func TestRefreshMovesPendingToDueSoon(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 14, 0, 0, 0, 0, time.UTC)
	in := seedInstance(repo, fiscal.StatusPending, now.Add(24*time.Hour))
	svc := newTestService(repo, now)

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.MarkedDueSoon)
	require.Zero(t, result.MarkedOverdue)
	require.Equal(t, fiscal.StatusDueSoon, in.Status)
}

func TestRefreshMovesPastDueToOverdue(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)
	pending := seedInstance(repo, fiscal.StatusPending, now.AddDate(0, 0, -2))
	dueSoon := seedInstance(repo, fiscal.StatusDueSoon, now.AddDate(0, 0, -1))
	svc := newTestService(repo, now)

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.MarkedOverdue)
	require.Equal(t, fiscal.StatusOverdue, pending.Status)
	require.Equal(t, fiscal.StatusOverdue, dueSoon.Status)
}

func TestRefreshDueExactlyNowIsNotDueSoon(t *testing.T) {
	// Boundary: due == now belongs to neither window; the next run picks it
	// up as overdue once the clock moves past it.
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)
	in := seedInstance(repo, fiscal.StatusPending, now)
	svc := newTestService(repo, now)

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.MarkedDueSoon)
	require.Zero(t, result.MarkedOverdue)
	require.Equal(t, fiscal.StatusPending, in.Status)

	svc.WithNow(func() time.Time { return now.Add(time.Second) })
	result, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.MarkedOverdue)
	require.Equal(t, fiscal.StatusOverdue, in.Status)
}

func TestRefreshWindowsAreDisjoint(t *testing.T) {
	// An instance inside the due-soon window must not be caught by the
	// overdue pass in the same run, and vice versa, whatever the order.
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 14, 12, 0, 0, 0, time.UTC)
	soon := seedInstance(repo, fiscal.StatusPending, now.Add(30*time.Hour))
	past := seedInstance(repo, fiscal.StatusPending, now.Add(-30*time.Hour))
	svc := newTestService(repo, now)

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.MarkedDueSoon)
	require.Equal(t, 1, result.MarkedOverdue)
	require.Equal(t, fiscal.StatusDueSoon, soon.Status)
	require.Equal(t, fiscal.StatusOverdue, past.Status)
}

func TestCompleteOnTimeAndLate(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)
	onTime := seedInstance(repo, fiscal.StatusPending, due)
	late := seedInstance(repo, fiscal.StatusOverdue, due)
	svc := newTestService(repo, now)

	done, err := svc.Complete(context.Background(), 1, onTime.ID, due)
	require.NoError(t, err)
	require.Equal(t, fiscal.StatusOnTimeDone, done.Status)

	done, err = svc.Complete(context.Background(), 1, late.ID, due.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Equal(t, fiscal.StatusLateDone, done.Status)
}

func TestCompleteRejectsTerminal(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	in := seedInstance(repo, fiscal.StatusOnTimeDone, now)
	svc := newTestService(repo, now)

	_, err := svc.Complete(context.Background(), 1, in.ID, now)
	require.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestListDerivesEffectiveStatus(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 14, 0, 0, 0, 0, time.UTC)
	in := seedInstance(repo, fiscal.StatusPending, now.AddDate(0, 0, 10))
	in.InternalTargetDate = now.Add(30 * time.Hour)
	svc := newTestService(repo, now)

	list, total, err := svc.List(context.Background(), 1, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, fiscal.StatusPending, list[0].Status, "stored status untouched")
	require.Equal(t, fiscal.StatusDueSoon, list[0].EffectiveStatus)
}

func TestDueNoticesAndMarkNotified(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.February, 15, 8, 0, 0, 0, time.UTC)
	due := seedInstance(repo, fiscal.StatusDueSoon, fiscal.DateOnly(now))
	seedInstance(repo, fiscal.StatusPending, now.AddDate(0, 0, 5))
	svc := newTestService(repo, now)

	notices, err := svc.DueNotices(context.Background())
	require.NoError(t, err)
	require.Len(t, notices, 1)
	require.Equal(t, due.ID, notices[0].InstanceID)

	require.NoError(t, svc.MarkNotified(context.Background(), []uuid.UUID{due.ID}))
	notices, err = svc.DueNotices(context.Background())
	require.NoError(t, err)
	require.Empty(t, notices)
}
