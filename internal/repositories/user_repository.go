package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// ErrHandleTaken is returned when a handle is already reserved by someone.
var ErrHandleTaken = errors.New("handle already taken")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	PatchUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ReserveHandle(ctx context.Context, reservation *models.HandleReservation) error
	ReleaseHandle(ctx context.Context, handle string) error
	GetUserIDByHandle(ctx context.Context, handle string) (string, error)
}

type userRepository struct {
	repo store.Repository
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(repo store.Repository) UserRepository {
	return &userRepository{repo: repo}
}

// CreateUser stores a new profile under user.ID
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	fields, err := store.Encode(user)
	if err != nil {
		return translate(err, "user", user.ID)
	}
	_, err = r.repo.Create(ctx, models.CollectionUsers, user.ID, fields)
	return translate(err, "user", user.ID)
}

// GetUserByID retrieves a user by ID
func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.repo.Get(ctx, models.CollectionUsers, id)
	if err != nil {
		return nil, translate(err, "user", id)
	}
	var user models.User
	if err := store.Decode(doc, &user); err != nil {
		return nil, err
	}
	user.ID = doc.ID
	return &user, nil
}

// UpdateUser overwrites every profile field of an existing user
func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	fields, err := store.Encode(user)
	if err != nil {
		return translate(err, "user", user.ID)
	}
	return translate(r.repo.Update(ctx, models.CollectionUsers, user.ID, fields), "user", user.ID)
}

// PatchUser writes only the fields set in patch and returns the profile with
// the patch applied. The merged profile is validated before the write.
func (r *userRepository) PatchUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	keys := patch.Apply(user)
	fields, err := store.Encode(user)
	if err != nil {
		return nil, translate(err, "user", id)
	}
	changed := make(store.Fields, len(keys))
	for _, k := range keys {
		changed[k] = fields[k]
	}
	if err := r.repo.Update(ctx, models.CollectionUsers, id, changed); err != nil {
		return nil, translate(err, "user", id)
	}
	return user, nil
}

// DeleteUser deletes a user by ID
func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	return translate(r.repo.Delete(ctx, models.CollectionUsers, id), "user", id)
}

// ReserveHandle claims a handle. It fails with ErrHandleTaken when another
// reservation exists.
func (r *userRepository) ReserveHandle(ctx context.Context, reservation *models.HandleReservation) error {
	fields, err := store.Encode(reservation)
	if err != nil {
		return translate(err, "handle", reservation.Handle)
	}
	_, err = r.repo.Create(ctx, models.CollectionHandles, reservation.Handle, fields)
	if errors.Is(err, store.ErrAlreadyExists) {
		return ErrHandleTaken
	}
	return translate(err, "handle", reservation.Handle)
}

// ReleaseHandle removes a reservation. Releasing an unknown handle is not an error.
func (r *userRepository) ReleaseHandle(ctx context.Context, handle string) error {
	err := r.repo.Delete(ctx, models.CollectionHandles, handle)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return translate(err, "handle", handle)
}

// GetUserIDByHandle resolves a handle to its owner's ID
func (r *userRepository) GetUserIDByHandle(ctx context.Context, handle string) (string, error) {
	doc, err := r.repo.Get(ctx, models.CollectionHandles, handle)
	if err != nil {
		return "", translate(err, "handle", handle)
	}
	var res models.HandleReservation
	if err := store.Decode(doc, &res); err != nil {
		return "", err
	}
	return res.UserID, nil
}
