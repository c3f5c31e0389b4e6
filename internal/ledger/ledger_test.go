package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
	"github.com/anonto42/memoshare/internal/store/memstore"
)

func newTestLedger(opts ...Option) *Ledger {
	repo := repositories.NewAggregateRepository(memstore.New())
	return New(repo, append([]Option{WithBackoff(0)}, opts...)...)
}

func TestIncrementIsIdempotentByMembership(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	res, err := l.Increment(ctx, models.CollectionLikes, "m1", "u1")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Aggregate.Count)

	res, err = l.Increment(ctx, models.CollectionLikes, "m1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Aggregate.Count)
	assert.Equal(t, []string{"u1"}, res.Aggregate.Members)
}

func TestDecrementAbsentMemberIsNoop(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	res, err := l.Decrement(ctx, models.CollectionLikes, "m1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 0, res.Aggregate.Count)

	_, err = l.Increment(ctx, models.CollectionLikes, "m1", "u2")
	require.NoError(t, err)
	res, err = l.Decrement(ctx, models.CollectionLikes, "m1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Aggregate.Count)
}

func TestGetMissingAggregateIsZero(t *testing.T) {
	l := newTestLedger()

	agg, err := l.Get(context.Background(), models.CollectionFollowerCounts, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.Count)
	assert.Empty(t, agg.Members)
}

func TestConcurrentMembersNeverDrift(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(WithMaxRetries(10_000))

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			// Every user likes twice from two "devices".
			_, err := l.Increment(ctx, models.CollectionLikes, "hot", id)
			assert.NoError(t, err)
			_, err = l.Increment(ctx, models.CollectionLikes, "hot", id)
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	agg, err := l.Get(ctx, models.CollectionLikes, "hot")
	require.NoError(t, err)
	assert.Equal(t, users, agg.Count)
	assert.Len(t, agg.Members, users)

	for i := 0; i < users; i += 2 {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := l.Decrement(ctx, models.CollectionLikes, "hot", id)
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	agg, err = l.Get(ctx, models.CollectionLikes, "hot")
	require.NoError(t, err)
	assert.Equal(t, users/2, agg.Count)
	assert.Len(t, agg.Members, agg.Count)
}

// alwaysStale loses every conditional write.
type alwaysStale struct {
	saves int
}

func (a *alwaysStale) GetAggregate(_ context.Context, _, key string) (*models.Aggregate, int64, error) {
	return &models.Aggregate{Key: key, Members: []string{}}, 1, nil
}

func (a *alwaysStale) SaveAggregate(context.Context, string, *models.Aggregate, int64) error {
	a.saves++
	return repositories.ErrStaleAggregate
}

func TestRetryCeilingSurfacesConflict(t *testing.T) {
	repo := &alwaysStale{}
	l := New(repo, WithBackoff(0), WithMaxRetries(3))

	_, err := l.Increment(context.Background(), models.CollectionLikes, "m1", "u1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 3, repo.saves)
}

func TestCanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(&alwaysStale{}, WithMaxRetries(100))
	_, err := l.Increment(ctx, models.CollectionLikes, "m1", "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncFollowsSourceOfTruth(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	present := true
	source := func(context.Context) (bool, error) { return present, nil }

	res, err := l.Sync(ctx, models.CollectionFollowerCounts, "u2", "u1", source)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Aggregate.Count)

	res, err = l.Sync(ctx, models.CollectionFollowerCounts, "u2", "u1", source)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	present = false
	res, err = l.Sync(ctx, models.CollectionFollowerCounts, "u2", "u1", source)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 0, res.Aggregate.Count)
}

func TestSyncSurfacesSourceError(t *testing.T) {
	l := newTestLedger()
	boom := fmt.Errorf("edge lookup failed")

	_, err := l.Sync(context.Background(), models.CollectionFollowerCounts, "u2", "u1",
		func(context.Context) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestStaleSyncCannotOverwriteLaterNoopSync(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	alwaysPresent := func(context.Context) (bool, error) { return true, nil }
	_, err := l.Sync(ctx, models.CollectionFollowerCounts, "u2", "u1", alwaysPresent)
	require.NoError(t, err)

	// The outer sync reads the edge as gone, then a newer sync that sees it
	// present commits before the outer one writes.
	calls := 0
	stale := func(ctx context.Context) (bool, error) {
		calls++
		if calls == 1 {
			_, err := l.Sync(ctx, models.CollectionFollowerCounts, "u2", "u1", alwaysPresent)
			require.NoError(t, err)
			return false, nil
		}
		return true, nil
	}
	_, err = l.Sync(ctx, models.CollectionFollowerCounts, "u2", "u1", stale)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	agg, err := l.Get(ctx, models.CollectionFollowerCounts, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, agg.Members)
}
