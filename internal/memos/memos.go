// Package memos handles authoring: publishing, editing and deleting memos.
package memos

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

type Service struct {
	memos  repositories.MemoRepository
	users  repositories.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(memos repositories.MemoRepository, users repositories.UserRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{memos: memos, users: users, logger: logger, now: models.Now}
}

// Create publishes a memo by authorID.
func (s *Service) Create(ctx context.Context, authorID string, req models.CreateMemoRequest) (*models.Memo, error) {
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		return nil, err
	}
	now := s.now()
	memo := &models.Memo{
		AuthorID:  authorID,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.memos.CreateMemo(ctx, memo); err != nil {
		return nil, err
	}
	s.logger.Info("memo created", zap.String("memo_id", memo.ID), zap.String("author_id", authorID))
	return memo, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Memo, error) {
	return s.memos.GetMemoByID(ctx, id)
}

// Update applies the non-nil fields of req. Only the author may edit.
func (s *Service) Update(ctx context.Context, callerID, id string, req models.UpdateMemoRequest) (*models.Memo, error) {
	memo, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		memo.Title = *req.Title
	}
	if req.Summary != nil {
		memo.Summary = *req.Summary
	}
	if req.Body != nil {
		memo.Body = *req.Body
	}
	memo.UpdatedAt = s.now()
	if err := s.memos.UpdateMemo(ctx, memo); err != nil {
		return nil, err
	}
	return memo, nil
}

// Delete removes a memo. Only the author may delete. Likes, bookmarks and
// comments referencing it are left in place.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.memos.DeleteMemo(ctx, id); err != nil {
		return err
	}
	s.logger.Info("memo deleted", zap.String("memo_id", id), zap.String("author_id", callerID))
	return nil
}

// ListByAuthor returns every memo by authorID, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]models.Memo, error) {
	return s.memos.ListMemos(ctx, repositories.MemoQuery{AuthorID: authorID})
}

func (s *Service) owned(ctx context.Context, callerID, id string) (*models.Memo, error) {
	memo, err := s.memos.GetMemoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if memo.AuthorID != callerID {
		return nil, apperrors.Unauthorized(apperrors.CodeNotOwner, "only the author can modify this memo")
	}
	return memo, nil
}
