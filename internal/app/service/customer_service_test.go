package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reservation-service/internal/domain"
)

func TestCustomerService_UpsertNormalizesEmail(t *testing.T) {
	repo := newFakeCustomerRepo()
	svc := NewCustomerService(repo, time.Second, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "  Guest@Example.COM ", "First")
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, "guest@example.com", "Second")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "guest@example.com", repo.customer(first).Email)
	assert.Equal(t, "Second", repo.customer(first).FullName)
}

func TestCustomerService_UpsertError(t *testing.T) {
	repo := newFakeCustomerRepo()
	repo.upsertErr = errors.New("db down")
	svc := NewCustomerService(repo, time.Second, zap.NewNop())

	_, err := svc.Upsert(context.Background(), "guest@example.com", "Guest")
	assert.Error(t, err)
}

func TestCustomerService_UpdateContact(t *testing.T) {
	repo := newFakeCustomerRepo()
	svc := NewCustomerService(repo, time.Second, zap.NewNop())
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "old@example.com", "Old")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateContact(ctx, id, "NEW@example.com", "New"))
	assert.Equal(t, domain.Customer{ID: id, Email: "new@example.com", FullName: "New"}, repo.customer(id))

	err = svc.UpdateContact(ctx, "missing", "x@example.com", "X")
	assert.Error(t, err)
}

func TestWithStoreTimeout(t *testing.T) {
	slow := func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	_, err := withStoreTimeout(context.Background(), 10*time.Millisecond, slow)
	assert.ErrorIs(t, err, domain.ErrStoreTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = withStoreTimeout(ctx, time.Second, slow)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrStoreTimeout, "caller cancellation is not a store timeout")

	v, err := withStoreTimeout(context.Background(), 0, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
