package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// Indexes lists the fields each collection is filtered or ordered by.
var Indexes = map[string][]string{
	models.CollectionMemos:        {"authorId", "createdAt"},
	models.CollectionFollows:      {"followerId", "followingId", "createdAt"},
	models.CollectionBookmarks:    {"userId", "createdAt"},
	models.CollectionComments:     {"contentId", "authorId", "createdAt"},
	models.CollectionChatMessages: {"channelId", "sentAt"},
}

// translate maps store sentinels onto application errors for entity/id.
func translate(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(entity, id).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return apperrors.Conflict("ALREADY_EXISTS", fmt.Sprintf("%s %q already exists", entity, id)).WithCause(err)
	case errors.Is(err, store.ErrInvalidRecord):
		code := "INVALID_" + strings.ToUpper(strings.ReplaceAll(entity, " ", "_"))
		return apperrors.Validation(code, err.Error()).WithCause(err)
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}
