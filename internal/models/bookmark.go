package models

import "time"

// Bookmark marks a memo as saved by a user. Existence is the state.
type Bookmark struct {
	UserID    string    `json:"userId" bson:"userId" validate:"required"`
	ContentID string    `json:"contentId" bson:"contentId" validate:"required"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// BookmarkID is the record ID of userID's bookmark on contentID.
func BookmarkID(userID, contentID string) string {
	return pairID(userID, contentID)
}

type BookmarkState struct {
	Bookmarked bool `json:"bookmarked"`
}
