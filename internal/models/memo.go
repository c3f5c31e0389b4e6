package models

import "time"

// Memo is a short markdown document published by its author.
type Memo struct {
	ID        string    `json:"id" bson:"-"`
	AuthorID  string    `json:"authorId" bson:"authorId" validate:"required"`
	Title     string    `json:"title" bson:"title" validate:"max=200"`
	Summary   string    `json:"summary" bson:"summary" validate:"max=1000"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FeedItem is a memo joined with its author's display fields.
type FeedItem struct {
	Memo
	AuthorDisplayName string `json:"authorDisplayName"`
	AuthorAvatarRef   string `json:"authorAvatarRef,omitempty"`
}

// CreateMemoRequest defines the request body for publishing a memo
type CreateMemoRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Summary string `json:"summary" validate:"max=1000"`
	Body    string `json:"body" validate:"required"`
}

// UpdateMemoRequest defines the request body for editing a memo. Nil fields are left untouched.
type UpdateMemoRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Summary *string `json:"summary,omitempty" validate:"omitempty,max=1000"`
	Body    *string `json:"body,omitempty"`
}
