// Package users manages member profiles, their unique handles and profile
// images.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/blob"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

const defaultDisplayName = "Anonymous"

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{2,30}$`)

type Service struct {
	users  repositories.UserRepository
	blobs  blob.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(users repositories.UserRepository, blobs blob.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, blobs: blobs, logger: logger, now: models.Now}
}

// Register creates the profile for a signed-in identity. Registering an
// existing user returns the stored profile unchanged.
func (s *Service) Register(ctx context.Context, userID, displayName string) (*models.User, error) {
	existing, err := s.users.GetUserByID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = defaultDisplayName
	}
	now := s.now()
	user := &models.User{ID: userID, DisplayName: displayName, CreatedAt: now, UpdatedAt: now}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost a race with a concurrent registration.
			if existing, getErr := s.users.GetUserByID(ctx, userID); getErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", userID))
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of req to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, callerID string, req models.UpdateProfileRequest) (*models.User, error) {
	patch := models.UserPatch{Bio: req.Bio, UpdatedAt: s.now()}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			name = defaultDisplayName
		}
		patch.DisplayName = &name
	}
	if req.TwitterHandle != nil {
		twitter := strings.TrimPrefix(strings.TrimSpace(*req.TwitterHandle), "@")
		patch.TwitterHandle = &twitter
	}
	return s.users.PatchUser(ctx, callerID, patch)
}

// SetHandle claims a globally unique handle for the caller. A handle can be
// set once; setting the same handle again is a no-op.
func (s *Service) SetHandle(ctx context.Context, callerID, handle string) (*models.User, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if !handlePattern.MatchString(handle) {
		return nil, apperrors.Validation("INVALID_HANDLE", "handle must be 2-30 lowercase letters, digits or underscores")
	}
	user, err := s.users.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user.Handle == handle {
		return user, nil
	}
	if user.Handle != "" {
		return nil, apperrors.Validation(apperrors.CodeHandleImmutable, "handle is already set")
	}

	err = s.users.ReserveHandle(ctx, &models.HandleReservation{Handle: handle, UserID: callerID, TakenAt: s.now()})
	if errors.Is(err, repositories.ErrHandleTaken) {
		return nil, apperrors.Validation(apperrors.CodeDuplicateHandle, fmt.Sprintf("handle %q is taken", handle))
	}
	if err != nil {
		return nil, err
	}

	user, err = s.users.PatchUser(ctx, callerID, models.UserPatch{Handle: &handle, UpdatedAt: s.now()})
	if err != nil {
		if releaseErr := s.users.ReleaseHandle(ctx, handle); releaseErr != nil {
			s.logger.Error("failed to release handle", zap.String("handle", handle), zap.Error(releaseErr))
		}
		return nil, err
	}
	return user, nil
}

// GetByHandle resolves a handle to its owner's profile.
func (s *Service) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	userID, err := s.users.GetUserIDByHandle(ctx, strings.ToLower(strings.TrimSpace(handle)))
	if err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, userID)
}

// UploadAvatar stores a new avatar image and records its URL on the profile.
func (s *Service) UploadAvatar(ctx context.Context, callerID, fileName string, data []byte, contentType string) (*models.User, error) {
	return s.uploadImage(ctx, callerID, fileName, data, contentType, func(p *models.UserPatch, url string) { p.AvatarRef = &url })
}

// UploadHeader stores a new header image and records its URL on the profile.
func (s *Service) UploadHeader(ctx context.Context, callerID, fileName string, data []byte, contentType string) (*models.User, error) {
	return s.uploadImage(ctx, callerID, fileName, data, contentType, func(p *models.UserPatch, url string) { p.HeaderRef = &url })
}

func (s *Service) uploadImage(ctx context.Context, callerID, fileName string, data []byte, contentType string, set func(*models.UserPatch, string)) (*models.User, error) {
	if len(data) == 0 {
		return nil, apperrors.Validation("EMPTY_FILE", "image is empty")
	}
	if s.blobs == nil {
		return nil, apperrors.New(apperrors.KindInternal, "BLOB_DISABLED", "image uploads are not configured")
	}
	if _, err := s.users.GetUserByID(ctx, callerID); err != nil {
		return nil, err
	}
	url, err := s.blobs.Put(ctx, blob.ProfilePicturePath(callerID, fileName), data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	patch := models.UserPatch{UpdatedAt: s.now()}
	set(&patch, url)
	return s.users.PatchUser(ctx, callerID, patch)
}

// DeleteAccount removes the caller's profile and handle reservation. Memos,
// comments, likes and follow edges are not deleted.
func (s *Service) DeleteAccount(ctx context.Context, callerID string) error {
	user, err := s.users.GetUserByID(ctx, callerID)
	if err != nil {
		return err
	}
	if user.Handle != "" {
		if err := s.users.ReleaseHandle(ctx, user.Handle); err != nil {
			return err
		}
	}
	if err := s.users.DeleteUser(ctx, callerID); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("user_id", callerID))
	return nil
}
