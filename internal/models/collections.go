package models

// Collection names in the document store.
const (
	CollectionUsers          = "users"
	CollectionHandles        = "handles"
	CollectionMemos          = "memos"
	CollectionFollows        = "follows"
	CollectionFollowerCounts = "follower_counts"
	CollectionLikes          = "likes"
	CollectionBookmarks      = "bookmarks"
	CollectionComments       = "comments"
	CollectionChatMessages   = "chat_messages"
)
