package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	accounts map[string]*Accountant
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*Accountant, error) {
	acct, ok := r.accounts[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

func newTestService(t *testing.T, now time.Time) (*Service, *memoryRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("contador123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryRepo{accounts: map[string]*Accountant{
		"maria@declarapsi.local": {
			ID:           7,
			Name:         "Maria Contadora",
			Email:        "maria@declarapsi.local",
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}}
	svc := NewService(repo, "test-secret", 12*time.Hour)
	svc.WithNow(func() time.Time { return now })
	return svc, repo
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	acct, err := svc.Authenticate(ctx, "maria@declarapsi.local", "contador123")
	require.NoError(t, err)
	require.Equal(t, int64(7), acct.ID)

	_, err = svc.Authenticate(ctx, "maria@declarapsi.local", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@declarapsi.local", "contador123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	repo.accounts["maria@declarapsi.local"].IsActive = false
	_, err = svc.Authenticate(ctx, "maria@declarapsi.local", "contador123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, issued)

	token, expires, err := svc.IssueToken(&Accountant{ID: 7, Name: "Maria Contadora"})
	require.NoError(t, err)
	require.Equal(t, issued.Add(12*time.Hour), expires)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, issued)

	token, _, err := svc.IssueToken(&Accountant{ID: 7, Name: "Maria Contadora"})
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return issued.Add(13 * time.Hour) })
	_, err = svc.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, issued)

	token, _, err := svc.IssueToken(&Accountant{ID: 7, Name: "Maria Contadora"})
	require.NoError(t, err)

	other := NewService(&memoryRepo{}, "other-secret", time.Hour)
	other.WithNow(func() time.Time { return issued })
	_, err = other.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	_, err := svc.ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
