package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilePicturePath(t *testing.T) {
	assert.Equal(t, "profilePictures/u1/avatar.png", ProfilePicturePath("u1", "avatar.png"))
	assert.Equal(t, "profilePictures/u1/evil.png", ProfilePicturePath("u1", "../../evil.png"))
	assert.Equal(t, "profilePictures/u1/pic.jpg", ProfilePicturePath("u1", `C:\Users\me\pic.jpg`))
}

func TestMemoryStorePutDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	url, err := s.Put(ctx, "a/b.png", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "memory://a/b.png", url)

	data, ok := s.Get("a/b.png")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)

	require.NoError(t, s.Delete(ctx, "a/b.png"))
	assert.ErrorIs(t, s.Delete(ctx, "a/b.png"), ErrNotFound)
}

func TestFirebaseDownloadURL(t *testing.T) {
	s := NewFirebaseStore(nil, "demo.appspot.com")
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/profilePictures%2Fu1%2Fa.png?alt=media",
		s.downloadURL("profilePictures/u1/a.png"))
}
