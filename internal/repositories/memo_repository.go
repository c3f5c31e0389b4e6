package repositories

import (
	"context"
	"time"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// MemoCursor is the (createdAt, id) position of the last memo already read.
type MemoCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// MemoQuery selects memos newest first.
type MemoQuery struct {
	AuthorID string
	After    *MemoCursor
	Limit    int
}

// MemoRepository defines the interface for memo data operations
type MemoRepository interface {
	CreateMemo(ctx context.Context, memo *models.Memo) error
	GetMemoByID(ctx context.Context, id string) (*models.Memo, error)
	UpdateMemo(ctx context.Context, memo *models.Memo) error
	DeleteMemo(ctx context.Context, id string) error
	ListMemos(ctx context.Context, q MemoQuery) ([]models.Memo, error)
}

type memoRepository struct {
	repo store.Repository
}

// NewMemoRepository creates a new MemoRepository
func NewMemoRepository(repo store.Repository) MemoRepository {
	return &memoRepository{repo: repo}
}

// CreateMemo stores a memo and assigns its ID when empty
func (r *memoRepository) CreateMemo(ctx context.Context, memo *models.Memo) error {
	fields, err := store.Encode(memo)
	if err != nil {
		return translate(err, "memo", memo.ID)
	}
	id, err := r.repo.Create(ctx, models.CollectionMemos, memo.ID, fields)
	if err != nil {
		return translate(err, "memo", memo.ID)
	}
	memo.ID = id
	return nil
}

// GetMemoByID retrieves a memo by ID
func (r *memoRepository) GetMemoByID(ctx context.Context, id string) (*models.Memo, error) {
	doc, err := r.repo.Get(ctx, models.CollectionMemos, id)
	if err != nil {
		return nil, translate(err, "memo", id)
	}
	return decodeMemo(doc)
}

// UpdateMemo overwrites an existing memo
func (r *memoRepository) UpdateMemo(ctx context.Context, memo *models.Memo) error {
	fields, err := store.Encode(memo)
	if err != nil {
		return translate(err, "memo", memo.ID)
	}
	return translate(r.repo.Update(ctx, models.CollectionMemos, memo.ID, fields), "memo", memo.ID)
}

// DeleteMemo deletes a memo by ID
func (r *memoRepository) DeleteMemo(ctx context.Context, id string) error {
	return translate(r.repo.Delete(ctx, models.CollectionMemos, id), "memo", id)
}

// ListMemos returns memos ordered by createdAt descending with ID as tie-break,
// starting strictly after q.After.
func (r *memoRepository) ListMemos(ctx context.Context, q MemoQuery) ([]models.Memo, error) {
	sq := store.Query{
		OrderBy: &store.OrderBy{Field: "createdAt", Desc: true},
		Limit:   q.Limit,
	}
	if q.AuthorID != "" {
		sq.Filters = append(sq.Filters, store.Eq("authorId", q.AuthorID))
	}
	if q.After != nil {
		sq.StartAfter = &store.Cursor{Value: q.After.CreatedAt, ID: q.After.ID}
	}
	docs, err := r.repo.Query(ctx, models.CollectionMemos, sq)
	if err != nil {
		return nil, translate(err, "memos by author", q.AuthorID)
	}
	memos := make([]models.Memo, 0, len(docs))
	for i := range docs {
		memo, err := decodeMemo(&docs[i])
		if err != nil {
			return nil, err
		}
		memos = append(memos, *memo)
	}
	return memos, nil
}

func decodeMemo(doc *store.Document) (*models.Memo, error) {
	var memo models.Memo
	if err := store.Decode(doc, &memo); err != nil {
		return nil, err
	}
	memo.ID = doc.ID
	return &memo, nil
}
