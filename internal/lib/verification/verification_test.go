package verification

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStorage struct {
	byUser map[uuid.UUID]models.EmailVerification
}

func newFakeTokenStorage() *fakeTokenStorage {
	return &fakeTokenStorage{byUser: make(map[uuid.UUID]models.EmailVerification)}
}

func (f *fakeTokenStorage) UpsertVerification(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	v, ok := f.byUser[userID]
	if !ok {
		v = models.EmailVerification{ID: uuid.New(), UserID: userID}
	}
	v.Token = token
	v.ExpiresAt = expiresAt
	v.IsVerified = false
	f.byUser[userID] = v
	return nil
}

func (f *fakeTokenStorage) VerificationByToken(_ context.Context, token string) (models.EmailVerification, error) {
	for _, v := range f.byUser {
		if v.Token == token {
			return v, nil
		}
	}
	return models.EmailVerification{}, storage.ErrVerificationNotFound
}

func (f *fakeTokenStorage) VerificationByUser(_ context.Context, userID uuid.UUID) (models.EmailVerification, error) {
	v, ok := f.byUser[userID]
	if !ok {
		return models.EmailVerification{}, storage.ErrVerificationNotFound
	}
	return v, nil
}

func (f *fakeTokenStorage) MarkVerified(_ context.Context, id uuid.UUID) error {
	for userID, v := range f.byUser {
		if v.ID == id {
			v.IsVerified = true
			f.byUser[userID] = v
			return nil
		}
	}
	return storage.ErrVerificationNotFound
}

func (f *fakeTokenStorage) ExpiredUnverified(_ context.Context) ([]models.EmailVerification, error) {
	var out []models.EmailVerification
	for _, v := range f.byUser {
		if !v.IsVerified && v.IsExpired() {
			out = append(out, v)
		}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIssueAndRedeem(t *testing.T) {
	store := newFakeTokenStorage()
	svc := New(discardLogger(), store, time.Hour)

	ctx := context.Background()
	userID := uuid.New()

	token, err := svc.Issue(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.Redeem(ctx, token))

	v, err := store.VerificationByUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, v.IsVerified)
}

func TestIssue_TokensAreUnique(t *testing.T) {
	store := newFakeTokenStorage()
	svc := New(discardLogger(), store, time.Hour)

	ctx := context.Background()

	first, err := svc.Issue(ctx, uuid.New())
	require.NoError(t, err)

	second, err := svc.Issue(ctx, uuid.New())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestIssue_RotatesExistingRecord(t *testing.T) {
	store := newFakeTokenStorage()
	svc := New(discardLogger(), store, time.Hour)

	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Issue(ctx, userID)
	require.NoError(t, err)

	second, err := svc.Issue(ctx, userID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// one record per user: the old token stops working
	assert.ErrorIs(t, svc.Redeem(ctx, first), ErrTokenNotFound)
	assert.NoError(t, svc.Redeem(ctx, second))
}

func TestRedeem_UnknownToken(t *testing.T) {
	svc := New(discardLogger(), newFakeTokenStorage(), time.Hour)

	err := svc.Redeem(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedeem_AlreadyVerified(t *testing.T) {
	store := newFakeTokenStorage()
	svc := New(discardLogger(), store, time.Hour)

	ctx := context.Background()

	token, err := svc.Issue(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, token))
	assert.ErrorIs(t, svc.Redeem(ctx, token), ErrAlreadyVerified)
}

func TestRedeem_ExpiredToken(t *testing.T) {
	store := newFakeTokenStorage()
	svc := New(discardLogger(), store, -time.Hour)

	ctx := context.Background()

	token, err := svc.Issue(ctx, uuid.New())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Redeem(ctx, token), ErrTokenExpired)
}

func TestReissue(t *testing.T) {
	store := newFakeTokenStorage()
	svc := New(discardLogger(), store, time.Hour)

	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Issue(ctx, userID)
	require.NoError(t, err)

	second, err := svc.Reissue(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, svc.Redeem(ctx, second))

	_, err = svc.Reissue(ctx, userID)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestExpiredUnverified(t *testing.T) {
	store := newFakeTokenStorage()

	ctx := context.Background()

	expired := New(discardLogger(), store, -time.Hour)
	fresh := New(discardLogger(), store, time.Hour)

	_, err := expired.Issue(ctx, uuid.New())
	require.NoError(t, err)
	_, err = fresh.Issue(ctx, uuid.New())
	require.NoError(t, err)

	out, err := fresh.ExpiredUnverified(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
