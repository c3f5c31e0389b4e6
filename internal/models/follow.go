package models

import (
	"strconv"
	"time"
)

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	FollowerID  string    `json:"followerId" bson:"followerId" validate:"required"`
	FollowingID string    `json:"followingId" bson:"followingId" validate:"required,nefield=FollowerID"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// FollowID is the record ID of the edge follower -> following. One record
// per ordered pair.
func FollowID(followerID, followingID string) string {
	return pairID(followerID, followingID)
}

// pairID joins an ordered pair of opaque ids into one record ID. The first
// id is length-prefixed so ids containing the separator cannot collide:
// ("a_b", "c") and ("a", "b_c") map to "3:a_b_c" and "1:a_b_c".
func pairID(first, second string) string {
	return strconv.Itoa(len(first)) + ":" + first + "_" + second
}
