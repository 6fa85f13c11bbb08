package repo

import (
	"context"

	"github.com/lumenbot/lumen/internal/biz/domain"
)

// Gateway is the chat-gateway client interface consumed by the
// highlight pipeline. It covers history, delivery and the permission
// lookups the match engine filters on.
type Gateway interface {
	// ChannelHistory returns up to limit messages from the channel,
	// most recent first.
	ChannelHistory(ctx context.Context, channelID string, limit int) ([]*domain.Message, error)

	// DeliverDM sends a notification to the user's direct-message
	// channel. May fail when the recipient has DMs closed; failures
	// are not retried.
	DeliverDM(ctx context.Context, userID string, n *domain.Notification) error

	// IsMember checks guild membership.
	IsMember(guildID, userID string) bool

	// CanRead checks whether the user has read permission on the
	// channel.
	CanRead(channelID, userID string) bool

	// GuildName and ChannelName resolve display names for rendering.
	GuildName(guildID string) string
	ChannelName(channelID string) string

	// EmojiKnown reports whether the custom emote identifier is known
	// to the bot. Unknown emotes render as a placeholder glyph.
	EmojiKnown(emojiID string) bool
}
