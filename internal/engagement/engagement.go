// Package engagement holds per-user reactions to memos: likes, bookmarks
// and comments.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/ledger"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

type Service struct {
	memos     repositories.MemoRepository
	users     repositories.UserRepository
	bookmarks repositories.BookmarkRepository
	comments  repositories.CommentRepository
	ledger    *ledger.Ledger
	notifier  *events.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

type Deps struct {
	Memos     repositories.MemoRepository
	Users     repositories.UserRepository
	Bookmarks repositories.BookmarkRepository
	Comments  repositories.CommentRepository
	Ledger    *ledger.Ledger
	Notifier  *events.Notifier
	Logger    *zap.Logger
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		memos:     d.Memos,
		users:     d.Users,
		bookmarks: d.Bookmarks,
		comments:  d.Comments,
		ledger:    d.Ledger,
		notifier:  d.Notifier,
		logger:    logger,
		now:       models.Now,
	}
}

// ToggleLike flips userID's like on contentID and returns the new state.
// Concurrent toggles from the same user converge on one membership entry.
func (s *Service) ToggleLike(ctx context.Context, userID, contentID string) (*models.LikeState, error) {
	memo, err := s.memos.GetMemoByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	current, err := s.ledger.Get(ctx, models.CollectionLikes, contentID)
	if err != nil {
		return nil, err
	}

	var res *ledger.Result
	if current.Has(userID) {
		res, err = s.ledger.Decrement(ctx, models.CollectionLikes, contentID, userID)
	} else {
		res, err = s.ledger.Increment(ctx, models.CollectionLikes, contentID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle like on %s: %w", contentID, err)
	}

	state := &models.LikeState{Liked: res.Aggregate.Has(userID), Count: res.Aggregate.Count}
	if res.Changed && state.Liked {
		s.notifier.Notify(ctx, events.Event{
			Type:        events.TypeLike,
			ActorID:     userID,
			RecipientID: memo.AuthorID,
			SubjectID:   contentID,
		})
	}
	return state, nil
}

// GetLikes returns the like aggregate of a memo. Unliked memos read as zero.
func (s *Service) GetLikes(ctx context.Context, contentID string) (*models.LikeAggregate, error) {
	agg, err := s.ledger.Get(ctx, models.CollectionLikes, contentID)
	if err != nil {
		return nil, err
	}
	return &models.LikeAggregate{ContentID: contentID, Count: agg.Count, LikedBy: agg.Members}, nil
}

// ToggleBookmark flips the existence of userID's bookmark on contentID.
func (s *Service) ToggleBookmark(ctx context.Context, userID, contentID string) (*models.BookmarkState, error) {
	if _, err := s.memos.GetMemoByID(ctx, contentID); err != nil {
		return nil, err
	}
	removed, err := s.bookmarks.DeleteBookmark(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	if removed {
		return &models.BookmarkState{Bookmarked: false}, nil
	}
	// A concurrent toggle may have created it first; either way it exists now.
	if _, err := s.bookmarks.CreateBookmark(ctx, &models.Bookmark{
		UserID:    userID,
		ContentID: contentID,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	return &models.BookmarkState{Bookmarked: true}, nil
}

func (s *Service) IsBookmarked(ctx context.Context, userID, contentID string) (bool, error) {
	return s.bookmarks.IsBookmarked(ctx, userID, contentID)
}

// ListBookmarks returns userID's bookmarked memos, newest bookmark first.
// Memos deleted since and memos whose author is gone are skipped.
func (s *Service) ListBookmarks(ctx context.Context, userID string) ([]models.FeedItem, error) {
	marks, err := s.bookmarks.GetBookmarksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	memos := make([]models.Memo, 0, len(marks))
	for _, b := range marks {
		memo, err := s.memos.GetMemoByID(ctx, b.ContentID)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		memos = append(memos, *memo)
	}
	items, _, err := repositories.JoinAuthors(ctx, s.users, memos)
	return items, err
}

// AddComment posts a comment. The author's display fields are copied onto
// the comment and never refreshed afterwards.
func (s *Service) AddComment(ctx context.Context, userID, contentID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation(apperrors.CodeEmptyText, "comment text is empty")
	}
	memo, err := s.memos.GetMemoByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ContentID:         contentID,
		AuthorID:          userID,
		Text:              text,
		CreatedAt:         s.now(),
		AuthorDisplayName: author.DisplayName,
		AuthorAvatarRef:   author.AvatarRef,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.Event{
		Type:        events.TypeComment,
		ActorID:     userID,
		RecipientID: memo.AuthorID,
		SubjectID:   contentID,
		Payload:     map[string]string{"commentId": comment.ID},
	})
	return comment, nil
}

// ListComments returns every comment on contentID, oldest first.
func (s *Service) ListComments(ctx context.Context, contentID string) ([]models.Comment, error) {
	return s.comments.GetCommentsByContentID(ctx, contentID)
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *Service) DeleteComment(ctx context.Context, callerID, commentID string) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != callerID {
		return apperrors.Unauthorized(apperrors.CodeNotOwner, "only the author can delete this comment")
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.logger.Info("comment deleted", zap.String("comment_id", commentID), zap.String("content_id", comment.ContentID))
	return nil
}
