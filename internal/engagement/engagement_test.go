package engagement

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

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
	memos repositories.MemoRepository
	pub   *events.MemoryPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	f := &fixture{
		users: repositories.NewUserRepository(st),
		memos: repositories.NewMemoRepository(st),
		pub:   events.NewMemoryPublisher(),
	}
	for _, id := range []string{"author", "u1", "u2"} {
		require.NoError(t, f.users.CreateUser(ctx, &models.User{ID: id, DisplayName: "name " + id}))
	}
	require.NoError(t, f.memos.CreateMemo(ctx, &models.Memo{ID: "m1", AuthorID: "author", Title: "hello", CreatedAt: models.Now()}))

	f.svc = NewService(Deps{
		Memos:     f.memos,
		Users:     f.users,
		Bookmarks: repositories.NewBookmarkRepository(st),
		Comments:  repositories.NewCommentRepository(st),
		Ledger:    ledger.New(repositories.NewAggregateRepository(st), ledger.WithBackoff(0), ledger.WithMaxRetries(10_000)),
		Notifier:  events.NewNotifier(f.pub, nil, nil),
	})
	return f
}

func TestToggleLikeRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	state, err := f.svc.ToggleLike(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: true, Count: 1}, *state)

	state, err = f.svc.ToggleLike(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: false, Count: 0}, *state)
}

func TestLikeScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.ToggleLike(ctx, "u1", "m1")
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(ctx, "u2", "m1")
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(ctx, "u1", "m1")
	require.NoError(t, err)

	likes, err := f.svc.GetLikes(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, likes.Count)
	assert.Equal(t, []string{"u2"}, likes.LikedBy)

	// Only transitions to liked notify the author.
	assert.Len(t, f.pub.Events(events.TypeLike), 2)
}

func TestConcurrentLikesKeepCountEqualToMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := f.svc.ToggleLike(ctx, user, "m1")
			assert.NoError(t, err)
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()

	likes, err := f.svc.GetLikes(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, n, likes.Count)
	assert.Len(t, likes.LikedBy, likes.Count)
}

func TestToggleLikeMissingMemo(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleLike(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestToggleBookmark(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	state, err := f.svc.ToggleBookmark(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.True(t, state.Bookmarked)

	ok, err := f.svc.IsBookmarked(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := f.svc.ListBookmarks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, "name author", list[0].AuthorDisplayName)

	state, err = f.svc.ToggleBookmark(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.False(t, state.Bookmarked)

	list, err = f.svc.ListBookmarks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListBookmarksSkipsDeletedMemos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.ToggleBookmark(ctx, "u1", "m1")
	require.NoError(t, err)
	require.NoError(t, f.memos.DeleteMemo(ctx, "m1"))

	list, err := f.svc.ListBookmarks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddCommentRejectsBlankText(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddComment(context.Background(), "u1", "m1", "   \n\t ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.Validation(apperrors.CodeEmptyText, ""))
}

func TestCommentsAreSnapshotsInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := f.svc.AddComment(ctx, "u1", "m1", "  first  ")
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, "name u1", first.AuthorDisplayName)

	// Renaming the author does not rewrite the snapshot.
	u1, err := f.users.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	u1.DisplayName = "renamed"
	require.NoError(t, f.users.UpdateUser(ctx, u1))

	_, err = f.svc.AddComment(ctx, "u2", "m1", "second")
	require.NoError(t, err)

	comments, err := f.svc.ListComments(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "name u1", comments[0].AuthorDisplayName)
	assert.Equal(t, "second", comments[1].Text)

	assert.Len(t, f.pub.Events(events.TypeComment), 2)
}

func TestDeleteCommentIsAuthorOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.AddComment(ctx, "u1", "m1", "mine")
	require.NoError(t, err)

	err = f.svc.DeleteComment(ctx, "u2", c.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, f.svc.DeleteComment(ctx, "u1", c.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, "u1", c.ID), apperrors.ErrNotFound)

	comments, err := f.svc.ListComments(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, comments)
}
