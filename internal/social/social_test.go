package social

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/ledger"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
	"github.com/anonto42/memoshare/internal/store/memstore"
)

type fixture struct {
	svc   *Service
	users repositories.UserRepository
	pub   *events.MemoryPublisher
}

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, nil, userIDs...)
}

// newFixtureWith lets a test wrap the follow repository and tune the ledger.
func newFixtureWith(t *testing.T, wrap func(repositories.FollowRepository) repositories.FollowRepository, ledgerOpts []ledger.Option, userIDs ...string) *fixture {
	t.Helper()
	st := memstore.New()
	users := repositories.NewUserRepository(st)
	for _, id := range userIDs {
		require.NoError(t, users.CreateUser(context.Background(), &models.User{ID: id, DisplayName: "user " + id}))
	}
	follows := repositories.NewFollowRepository(st)
	if wrap != nil {
		follows = wrap(follows)
	}
	pub := events.NewMemoryPublisher()
	l := ledger.New(repositories.NewAggregateRepository(st), append([]ledger.Option{ledger.WithBackoff(0)}, ledgerOpts...)...)
	svc := NewService(follows, users, l, events.NewNotifier(pub, nil, nil), nil)
	return &fixture{svc: svc, users: users, pub: pub}
}

// hookedFollows runs a one-shot hook right after the edge write.
type hookedFollows struct {
	repositories.FollowRepository
	afterCreate func()
	afterDelete func()
}

func (h *hookedFollows) CreateFollow(ctx context.Context, follow *models.Follow) (bool, error) {
	created, err := h.FollowRepository.CreateFollow(ctx, follow)
	if hook := h.afterCreate; hook != nil {
		h.afterCreate = nil
		hook()
	}
	return created, err
}

func (h *hookedFollows) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	removed, err := h.FollowRepository.DeleteFollow(ctx, followerID, followingID)
	if hook := h.afterDelete; hook != nil {
		h.afterDelete = nil
		hook()
	}
	return removed, err
}

func (f *fixture) assertCountMatchesEdges(t *testing.T, target string, followers ...string) {
	t.Helper()
	ctx := context.Background()
	expected := 0
	for _, who := range followers {
		ok, err := f.svc.IsFollowing(ctx, who, target)
		require.NoError(t, err)
		if ok {
			expected++
		}
	}
	count, err := f.svc.FollowerCount(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, expected, count)
}

func TestSelfFollowIsInvalid(t *testing.T) {
	f := newFixture(t, "u1")

	err := f.svc.Follow(context.Background(), "u1", "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.ErrorIs(t, err, apperrors.InvalidOperation(""))
}

func TestFollowUnknownUser(t *testing.T) {
	f := newFixture(t, "u1")

	err := f.svc.Follow(context.Background(), "u1", "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFollowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "u1", "u2")

	require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))
	require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))

	count, err := f.svc.FollowerCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, f.pub.Events(events.TypeFollow), 1)
}

func TestUnfollowAbsentEdgeIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "u1", "u2")

	require.NoError(t, f.svc.Unfollow(ctx, "u1", "u2"))

	count, err := f.svc.FollowerCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMutualFollowScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "u1", "u2")

	require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))

	following, err := f.svc.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, following)

	mutual, err := f.svc.IsMutual(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, mutual)

	require.NoError(t, f.svc.Follow(ctx, "u2", "u1"))

	mutual, err = f.svc.IsMutual(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, mutual)
	mutual, err = f.svc.IsMutual(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.True(t, mutual)

	require.NoError(t, f.svc.Unfollow(ctx, "u2", "u1"))
	mutual, err = f.svc.IsMutual(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, mutual)
}

func TestFollowerCountMatchesEdgesAfterRandomSequence(t *testing.T) {
	ctx := context.Background()
	followers := []string{"a", "b", "c", "d"}
	f := newFixture(t, append(followers, "target")...)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		who := followers[rng.IntN(len(followers))]
		if rng.IntN(2) == 0 {
			require.NoError(t, f.svc.Follow(ctx, who, "target"))
		} else {
			require.NoError(t, f.svc.Unfollow(ctx, who, "target"))
		}
	}

	expected := 0
	for _, who := range followers {
		ok, err := f.svc.IsFollowing(ctx, who, "target")
		require.NoError(t, err)
		if ok {
			expected++
		}
	}
	count, err := f.svc.FollowerCount(ctx, "target")
	require.NoError(t, err)
	assert.Equal(t, expected, count)

	list, err := f.svc.ListFollowers(ctx, "target")
	require.NoError(t, err)
	assert.Len(t, list, expected)
}

func TestListsSkipDeletedAccounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "u1", "u2", "u3")

	require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))
	require.NoError(t, f.svc.Follow(ctx, "u1", "u3"))
	require.NoError(t, f.users.DeleteUser(ctx, "u3"))

	following, err := f.svc.ListFollowing(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "u2", following[0].ID)

	followers, err := f.svc.ListFollowers(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "u1", followers[0].ID)
}

func TestUnfollowBetweenEdgeWriteAndCountLeavesNoDrift(t *testing.T) {
	ctx := context.Background()
	hooked := &hookedFollows{}
	f := newFixtureWith(t, func(r repositories.FollowRepository) repositories.FollowRepository {
		hooked.FollowRepository = r
		return hooked
	}, nil, "u1", "u2")
	hooked.afterCreate = func() {
		require.NoError(t, f.svc.Unfollow(ctx, "u1", "u2"))
	}

	require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))

	following, err := f.svc.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, following)
	f.assertCountMatchesEdges(t, "u2", "u1")
}

func TestFollowBetweenEdgeDeleteAndCountLeavesNoDrift(t *testing.T) {
	ctx := context.Background()
	hooked := &hookedFollows{}
	f := newFixtureWith(t, func(r repositories.FollowRepository) repositories.FollowRepository {
		hooked.FollowRepository = r
		return hooked
	}, nil, "u1", "u2")
	require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))
	hooked.afterDelete = func() {
		require.NoError(t, f.svc.Follow(ctx, "u1", "u2"))
	}

	require.NoError(t, f.svc.Unfollow(ctx, "u1", "u2"))

	following, err := f.svc.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, following)
	f.assertCountMatchesEdges(t, "u2", "u1")
}

func TestFollowerCountMatchesEdgesUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	followers := []string{"a", "b", "c", "d", "e", "f"}
	f := newFixtureWith(t, nil, []ledger.Option{ledger.WithMaxRetries(10000)}, append(followers, "target")...)

	var wg sync.WaitGroup
	errs := make(chan error, len(followers)*3)
	for i, who := range followers {
		// several goroutines per follower so the same edge is fought over
		for g := 0; g < 3; g++ {
			wg.Add(1)
			go func(who string, seed uint64) {
				defer wg.Done()
				rng := rand.New(rand.NewPCG(seed, 7))
				for n := 0; n < 40; n++ {
					var err error
					if rng.IntN(2) == 0 {
						err = f.svc.Follow(ctx, who, "target")
					} else {
						err = f.svc.Unfollow(ctx, who, "target")
					}
					if err != nil {
						errs <- err
						return
					}
				}
			}(who, uint64(i*3+g))
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	f.assertCountMatchesEdges(t, "target", followers...)
}

func TestIDsWithSeparatorDoNotFakeMutualFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "c", "a_b", "b_c")

	require.NoError(t, f.svc.Follow(ctx, "a_b", "c"))
	require.NoError(t, f.svc.Follow(ctx, "b_c", "a"))

	following, err := f.svc.IsFollowing(ctx, "a", "b_c")
	require.NoError(t, err)
	assert.False(t, following)

	mutual, err := f.svc.IsMutual(ctx, "a", "b_c")
	require.NoError(t, err)
	assert.False(t, mutual)
}
