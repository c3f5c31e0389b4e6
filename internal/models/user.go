package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a member profile. Its ID is the identity subject.
type User struct {
	ID            string    `json:"id" bson:"-"`
	DisplayName   string    `json:"displayName" bson:"displayName" validate:"max=50"`
	Bio           string    `json:"bio,omitempty" bson:"bio" validate:"max=500"`
	AvatarRef     string    `json:"avatarRef,omitempty" bson:"avatarRef"`
	HeaderRef     string    `json:"headerRef,omitempty" bson:"headerRef"`
	Handle        string    `json:"handle,omitempty" bson:"handle" validate:"omitempty,min=2,max=30"`
	TwitterHandle string    `json:"twitterHandle,omitempty" bson:"twitterHandle" validate:"max=15"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserCompact is the author block joined onto feed items and follow lists.
type UserCompact struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
	Handle      string `json:"handle,omitempty"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarRef:   u.AvatarRef,
		Handle:      u.Handle,
	}
}

// HandleReservation maps a handle to its owner. The handle is the record ID,
// which makes uniqueness a property of the store's create semantics.
type HandleReservation struct {
	Handle  string    `json:"handle" bson:"-"`
	UserID  string    `json:"userId" bson:"userId" validate:"required"`
	TakenAt time.Time `json:"takenAt" bson:"takenAt"`
}

// UserPatch lists the profile fields one write changes. Nil fields are left
// as stored, so writes to different fields never undo each other.
type UserPatch struct {
	DisplayName   *string
	Bio           *string
	AvatarRef     *string
	HeaderRef     *string
	Handle        *string
	TwitterHandle *string
	UpdatedAt     time.Time
}

// Apply copies the set fields onto u and returns the bson keys it touched.
func (p UserPatch) Apply(u *User) []string {
	keys := []string{"updatedAt"}
	set := func(dst *string, src *string, key string) {
		if src != nil {
			*dst = *src
			keys = append(keys, key)
		}
	}
	set(&u.DisplayName, p.DisplayName, "displayName")
	set(&u.Bio, p.Bio, "bio")
	set(&u.AvatarRef, p.AvatarRef, "avatarRef")
	set(&u.HeaderRef, p.HeaderRef, "headerRef")
	set(&u.Handle, p.Handle, "handle")
	set(&u.TwitterHandle, p.TwitterHandle, "twitterHandle")
	u.UpdatedAt = p.UpdatedAt
	return keys
}

type UpdateProfileRequest struct {
	DisplayName   *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=50"`
	Bio           *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	TwitterHandle *string `json:"twitterHandle,omitempty" validate:"omitempty,max=15"`
}

type SetHandleRequest struct {
	Handle string `json:"handle" validate:"required,min=2,max=30"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
// Subject carries the user ID.
type JwtCustomClaims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
