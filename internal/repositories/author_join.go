package repositories

import (
	"context"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/models"
)

// JoinAuthors attaches author display fields to each memo, preserving order.
// Memos whose author no longer exists are dropped and counted in orphans.
func JoinAuthors(ctx context.Context, users UserRepository, memos []models.Memo) (items []models.FeedItem, orphans int, err error) {
	authors := make(map[string]*models.User)
	items = make([]models.FeedItem, 0, len(memos))
	for _, memo := range memos {
		author, cached := authors[memo.AuthorID]
		if !cached {
			author, err = users.GetUserByID(ctx, memo.AuthorID)
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				author, err = nil, nil
			}
			if err != nil {
				return nil, 0, err
			}
			authors[memo.AuthorID] = author
		}
		if author == nil {
			orphans++
			continue
		}
		items = append(items, models.FeedItem{
			Memo:              memo,
			AuthorDisplayName: author.DisplayName,
			AuthorAvatarRef:   author.AvatarRef,
		})
	}
	return items, orphans, nil
}
