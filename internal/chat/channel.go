// Package chat resolves two-party channels and carries direct messages
// between users who follow each other.
package chat

// ChannelFor returns the canonical channel id of the pair. It is
// order-independent: ChannelFor(a, b) == ChannelFor(b, a).
func ChannelFor(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// Topic is the live topic carrying a channel's new messages.
func Topic(channelID string) string {
	return "chat:" + channelID
}
