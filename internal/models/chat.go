package models

import "time"

// ChatMessage is one message in a two-party channel.
type ChatMessage struct {
	ID            string    `json:"id" bson:"-"`
	ChannelID     string    `json:"channelId" bson:"channelId" validate:"required"`
	SenderID      string    `json:"senderId" bson:"senderId" validate:"required"`
	Text          string    `json:"text" bson:"text" validate:"max=4000"`
	AttachmentRef string    `json:"attachmentRef,omitempty" bson:"attachmentRef,omitempty"`
	SentAt        time.Time `json:"sentAt" bson:"sentAt"`
}

type SendMessageRequest struct {
	Text          string `json:"text" validate:"max=4000"`
	AttachmentRef string `json:"attachmentRef,omitempty" validate:"omitempty,url"`
}
