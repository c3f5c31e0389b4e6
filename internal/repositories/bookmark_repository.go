package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// BookmarkRepository defines the interface for bookmark operations
type BookmarkRepository interface {
	CreateBookmark(ctx context.Context, bookmark *models.Bookmark) (bool, error)
	DeleteBookmark(ctx context.Context, userID, contentID string) (bool, error)
	IsBookmarked(ctx context.Context, userID, contentID string) (bool, error)
	// GetBookmarksByUser lists a user's bookmarks newest first.
	GetBookmarksByUser(ctx context.Context, userID string) ([]models.Bookmark, error)
}

type bookmarkRepository struct {
	repo store.Repository
}

// NewBookmarkRepository creates a new BookmarkRepository
func NewBookmarkRepository(repo store.Repository) BookmarkRepository {
	return &bookmarkRepository{repo: repo}
}

func (r *bookmarkRepository) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) (bool, error) {
	id := models.BookmarkID(bookmark.UserID, bookmark.ContentID)
	fields, err := store.Encode(bookmark)
	if err != nil {
		return false, translate(err, "bookmark", id)
	}
	_, err = r.repo.Create(ctx, models.CollectionBookmarks, id, fields)
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "bookmark", id)
	}
	return true, nil
}

func (r *bookmarkRepository) DeleteBookmark(ctx context.Context, userID, contentID string) (bool, error) {
	id := models.BookmarkID(userID, contentID)
	err := r.repo.Delete(ctx, models.CollectionBookmarks, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "bookmark", id)
	}
	return true, nil
}

func (r *bookmarkRepository) IsBookmarked(ctx context.Context, userID, contentID string) (bool, error) {
	id := models.BookmarkID(userID, contentID)
	_, err := r.repo.Get(ctx, models.CollectionBookmarks, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "bookmark", id)
	}
	return true, nil
}

func (r *bookmarkRepository) GetBookmarksByUser(ctx context.Context, userID string) ([]models.Bookmark, error) {
	docs, err := r.repo.Query(ctx, models.CollectionBookmarks, store.Query{
		Filters: []store.Filter{store.Eq("userId", userID)},
		OrderBy: &store.OrderBy{Field: "createdAt", Desc: true},
	})
	if err != nil {
		return nil, translate(err, "bookmarks of user", userID)
	}
	bookmarks := make([]models.Bookmark, 0, len(docs))
	for i := range docs {
		var b models.Bookmark
		if err := store.Decode(&docs[i], &b); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}
