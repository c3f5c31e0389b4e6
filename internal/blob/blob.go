// Package blob stores binary objects such as profile pictures and returns
// a public URL for each stored object.
package blob

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when deleting an object that does not exist.
var ErrNotFound = errors.New("blob not found")

// Store puts and deletes objects by slash-separated path.
type Store interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// ProfilePicturePath is where a user's profile images live.
func ProfilePicturePath(userID, fileName string) string {
	return path.Join("profilePictures", userID, path.Base(strings.ReplaceAll(fileName, "\\", "/")))
}
