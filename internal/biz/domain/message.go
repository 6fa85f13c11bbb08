package domain

import (
	"fmt"
	"time"
)

// Message represents a channel message as seen on the gateway.
type Message struct {
	ID         string
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
	CreatedAt  time.Time
}

// JumpURL returns the deep link to the message.
func (m *Message) JumpURL() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", m.GuildID, m.ChannelID, m.ID)
}

// EditedWithin checks if the message was created within the given
// window of now. Used to decide whether an edit is recent enough to
// re-match.
func (m *Message) EditedWithin(window time.Duration, now time.Time) bool {
	return now.Sub(m.CreatedAt) <= window
}
