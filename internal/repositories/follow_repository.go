package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// FollowRepository defines the interface for follow edge operations
type FollowRepository interface {
	// CreateFollow stores the edge and reports whether it was newly created.
	CreateFollow(ctx context.Context, follow *models.Follow) (bool, error)
	// DeleteFollow removes the edge and reports whether one existed.
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type followRepository struct {
	repo store.Repository
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(repo store.Repository) FollowRepository {
	return &followRepository{repo: repo}
}

func (r *followRepository) CreateFollow(ctx context.Context, follow *models.Follow) (bool, error) {
	id := models.FollowID(follow.FollowerID, follow.FollowingID)
	fields, err := store.Encode(follow)
	if err != nil {
		return false, translate(err, "follow", id)
	}
	_, err = r.repo.Create(ctx, models.CollectionFollows, id, fields)
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "follow", id)
	}
	return true, nil
}

func (r *followRepository) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	id := models.FollowID(followerID, followingID)
	err := r.repo.Delete(ctx, models.CollectionFollows, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "follow", id)
	}
	return true, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	id := models.FollowID(followerID, followingID)
	_, err := r.repo.Get(ctx, models.CollectionFollows, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "follow", id)
	}
	return true, nil
}

// GetFollowerIDs lists everyone following userID, oldest edge first. Unbounded.
func (r *followRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.edgeEnds(ctx, "followingId", userID, "followerId")
}

// GetFollowingIDs lists everyone userID follows, oldest edge first. Unbounded.
func (r *followRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.edgeEnds(ctx, "followerId", userID, "followingId")
}

func (r *followRepository) edgeEnds(ctx context.Context, matchField, userID, endField string) ([]string, error) {
	docs, err := r.repo.Query(ctx, models.CollectionFollows, store.Query{
		Filters: []store.Filter{store.Eq(matchField, userID)},
		OrderBy: &store.OrderBy{Field: "createdAt"},
	})
	if err != nil {
		return nil, translate(err, "follows with "+matchField, userID)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc.Fields[endField].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
