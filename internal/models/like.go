package models

// Aggregate is a denormalized counter whose member set is the source of truth.
type Aggregate struct {
	Key     string   `json:"key" bson:"-"`
	Count   int      `json:"count" bson:"count" validate:"gte=0"`
	Members []string `json:"members" bson:"members"`
}

// Has reports whether memberID is in the member set.
func (a *Aggregate) Has(memberID string) bool {
	for _, m := range a.Members {
		if m == memberID {
			return true
		}
	}
	return false
}

// LikeAggregate is the like state of one memo.
type LikeAggregate struct {
	ContentID string   `json:"contentId"`
	Count     int      `json:"count"`
	LikedBy   []string `json:"likedBy"`
}

// LikeState is what a viewer sees after toggling a like.
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}
