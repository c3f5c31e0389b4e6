package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
)

// FirebaseStore writes objects to a Cloud Storage bucket obtained from the
// Firebase app.
type FirebaseStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewFirebaseStore(bucket *storage.BucketHandle, bucketName string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, bucketName: bucketName}
}

func (s *FirebaseStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	w := s.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", objectPath, err)
	}
	return s.downloadURL(objectPath), nil
}

func (s *FirebaseStore) Delete(ctx context.Context, objectPath string) error {
	err := s.bucket.Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", objectPath, err)
	}
	return nil
}

func (s *FirebaseStore) downloadURL(objectPath string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media",
		s.bucketName, url.PathEscape(objectPath))
}
