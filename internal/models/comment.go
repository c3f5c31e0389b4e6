package models

import "time"

// Comment is a reply on a memo. Author display fields are a snapshot taken
// when the comment was posted and are not refreshed on rename.
type Comment struct {
	ID                string    `json:"id" bson:"-"`
	ContentID         string    `json:"contentId" bson:"contentId" validate:"required"`
	AuthorID          string    `json:"authorId" bson:"authorId" validate:"required"`
	Text              string    `json:"text" bson:"text" validate:"required,max=2000"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	AuthorDisplayName string    `json:"authorDisplayName" bson:"authorDisplayName"`
	AuthorAvatarRef   string    `json:"authorAvatarRef,omitempty" bson:"authorAvatarRef,omitempty"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
