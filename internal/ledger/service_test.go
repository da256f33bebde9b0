package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

type memoryRepo struct {
	records map[uuid.UUID]*Record
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: map[uuid.UUID]*Record{}}
}

func (r *memoryRepo) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Record, int, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.AccountantID == accountantID {
			out = append(out, *rec)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Record, error) {
	rec, ok := r.records[id]
	if !ok || rec.AccountantID != accountantID {
		return Record{}, httpx.ErrNotFound
	}
	return *rec, nil
}

func (r *memoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	copied := rec
	r.records[rec.ID] = &copied
	return copied, nil
}

func (r *memoryRepo) Update(ctx context.Context, rec Record) error {
	stored, ok := r.records[rec.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	*stored = rec
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, accountantID int64, id uuid.UUID) error {
	if _, ok := r.records[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

var _ Repository = (*memoryRepo)(nil)

func newTestService(repo Repository, now time.Time) *Service {
	svc := NewService(repo)
	svc.WithNow(func() time.Time { return now })
	return svc
}

func seedRecord(repo *memoryRepo, kind RecordKind, paymentDate *time.Time) *Record {
	rec := &Record{
		ID:           uuid.New(),
		AccountantID: 1,
		Kind:         kind,
		Description:  "Sessão",
		AmountCents:  15000,
		PaymentDate:  paymentDate,
	}
	repo.records[rec.ID] = rec
	return rec
}

func TestCreateUnpaidAlwaysAllowed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC))

	created, err := svc.Create(context.Background(), Record{
		AccountantID: 1,
		Kind:         KindCharge,
		Description:  "Honorários",
		AmountCents:  20000,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreatePaidInLockedPeriodRejected(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	paid := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), Record{
		AccountantID: 1,
		Kind:         KindExpense,
		Description:  "Aluguel",
		AmountCents:  100000,
		PaymentDate:  &paid,
	})
	require.ErrorIs(t, err, httpx.ErrPeriodLocked)
}

func TestUpdateGuardsStoredAndNewDates(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	locked := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	rec := seedRecord(repo, KindExpense, &locked)

	update := *rec
	update.Description = "Aluguel reajustado"
	err := svc.Update(context.Background(), update)
	require.ErrorIs(t, err, httpx.ErrPeriodLocked)

	open := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	rec2 := seedRecord(repo, KindExpense, &open)
	update = *rec2
	update.PaymentDate = &locked
	err = svc.Update(context.Background(), update)
	require.ErrorIs(t, err, httpx.ErrPeriodLocked)

	update = *rec2
	update.Description = "Conta de luz"
	require.NoError(t, svc.Update(context.Background(), update))
}

func TestDeleteLockedRecordRejected(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	locked := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	rec := seedRecord(repo, KindExpense, &locked)
	require.ErrorIs(t, svc.Delete(context.Background(), 1, rec.ID), httpx.ErrPeriodLocked)

	// Before the cutoff the previous month is still open.
	svc.WithNow(func() time.Time { return time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, svc.Delete(context.Background(), 1, rec.ID))
}

func TestMarkPaid(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	charge := seedRecord(repo, KindCharge, nil)
	expense := seedRecord(repo, KindExpense, nil)

	paid := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
	rec, err := svc.MarkPaid(context.Background(), 1, charge.ID, paid)
	require.NoError(t, err)
	require.True(t, rec.Paid())

	_, err = svc.MarkPaid(context.Background(), 1, expense.ID, paid)
	require.ErrorIs(t, err, httpx.ErrValidation)

	lockedDate := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	_, err = svc.MarkPaid(context.Background(), 1, seedRecord(repo, KindCharge, nil).ID, lockedDate)
	require.ErrorIs(t, err, httpx.ErrPeriodLocked)
}

func TestPeriodCheck(t *testing.T) {
	svc := newTestService(newMemoryRepo(), time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC))

	ok, window := svc.PeriodCheck(time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.Equal(t, "02/2025 ou 03/2025", window)

	ok, _ = svc.PeriodCheck(time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	require.False(t, ok)
}
