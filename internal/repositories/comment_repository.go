package repositories

import (
	"context"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	// GetCommentsByContentID lists comments on a memo oldest first. Unbounded.
	GetCommentsByContentID(ctx context.Context, contentID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type commentRepository struct {
	repo store.Repository
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(repo store.Repository) CommentRepository {
	return &commentRepository{repo: repo}
}

// CreateComment stores a comment and assigns its ID
func (r *commentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	fields, err := store.Encode(comment)
	if err != nil {
		return translate(err, "comment", comment.ID)
	}
	id, err := r.repo.Create(ctx, models.CollectionComments, comment.ID, fields)
	if err != nil {
		return translate(err, "comment", comment.ID)
	}
	comment.ID = id
	return nil
}

// GetCommentByID retrieves a comment by ID
func (r *commentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	doc, err := r.repo.Get(ctx, models.CollectionComments, id)
	if err != nil {
		return nil, translate(err, "comment", id)
	}
	return decodeComment(doc)
}

func (r *commentRepository) GetCommentsByContentID(ctx context.Context, contentID string) ([]models.Comment, error) {
	docs, err := r.repo.Query(ctx, models.CollectionComments, store.Query{
		Filters: []store.Filter{store.Eq("contentId", contentID)},
		OrderBy: &store.OrderBy{Field: "createdAt"},
	})
	if err != nil {
		return nil, translate(err, "comments on", contentID)
	}
	comments := make([]models.Comment, 0, len(docs))
	for i := range docs {
		c, err := decodeComment(&docs[i])
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, nil
}

// DeleteComment deletes a comment by ID
func (r *commentRepository) DeleteComment(ctx context.Context, id string) error {
	return translate(r.repo.Delete(ctx, models.CollectionComments, id), "comment", id)
}

func decodeComment(doc *store.Document) (*models.Comment, error) {
	var c models.Comment
	if err := store.Decode(doc, &c); err != nil {
		return nil, err
	}
	c.ID = doc.ID
	return &c, nil
}
