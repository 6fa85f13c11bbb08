package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lumenbot/lumen/internal/biz/domain"
)

// MessageHandler is the callback for new messages
type MessageHandler func(msg *domain.Message)

// EditHandler is the callback for message edits. before may be nil
// when the prior version is not in the state cache.
type EditHandler func(before, after *domain.Message)

// Client wraps the Discord gateway session and exposes the
// domain-shaped API the highlight pipeline consumes. Lookups are
// served from the session state cache with a REST fallback.
type Client struct {
	session   *discordgo.Session
	onMessage MessageHandler
	onEdit    EditHandler
}

// NewClient creates a new Discord client
func NewClient(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	// Keep recent messages in state so edit events carry the prior
	// version.
	session.State.MaxMessageCount = 200

	return &Client{session: session}, nil
}

// OnMessage sets the new-message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// OnMessageEdit sets the edit handler
func (c *Client) OnMessageEdit(handler EditHandler) {
	c.onEdit = handler
}

// Start opens the gateway connection and begins delivering events.
func (c *Client) Start() error {
	c.session.AddHandler(c.handleMessageCreate)
	c.session.AddHandler(c.handleMessageUpdate)

	fmt.Println("[Discord] Opening gateway connection...")
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection
func (c *Client) Stop() {
	if err := c.session.Close(); err != nil {
		fmt.Printf("[Discord] Close error: %v\n", err)
	}
}

func (c *Client) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if c.onMessage == nil || m.Author == nil {
		return
	}
	c.onMessage(convertMessage(m.Message))
}

func (c *Client) handleMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if c.onEdit == nil || m.Author == nil {
		return
	}
	var before *domain.Message
	if m.BeforeUpdate != nil {
		before = convertMessage(m.BeforeUpdate)
	}
	c.onEdit(before, convertMessage(m.Message))
}

func convertMessage(m *discordgo.Message) *domain.Message {
	msg := &domain.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorBot = m.Author.Bot
	}
	return msg
}

// ========== repo.Gateway implementation ==========

// ChannelHistory returns up to limit messages, most recent first.
// History payloads omit the guild identifier, so it is filled from the
// channel lookup.
func (c *Client) ChannelHistory(ctx context.Context, channelID string, limit int) ([]*domain.Message, error) {
	msgs, err := c.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("channel messages: %w", err)
	}

	guildID := ""
	if ch, err := c.channel(channelID); err == nil {
		guildID = ch.GuildID
	}

	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		dm := convertMessage(m)
		if dm.GuildID == "" {
			dm.GuildID = guildID
		}
		out = append(out, dm)
	}
	return out, nil
}

// DeliverDM sends the notification as an embed to the user's DM
// channel.
func (c *Client) DeliverDM(ctx context.Context, userID string, n *domain.Notification) error {
	ch, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create dm channel: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description,
		Timestamp:   n.CreatedAt.Format(time.RFC3339),
	}
	if _, err := c.session.ChannelMessageSendEmbed(ch.ID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm embed: %w", err)
	}
	return nil
}

// IsMember checks guild membership via the state cache with a REST
// fallback.
func (c *Client) IsMember(guildID, userID string) bool {
	if _, err := c.session.State.Member(guildID, userID); err == nil {
		return true
	}
	_, err := c.session.GuildMember(guildID, userID)
	return err == nil
}

// CanRead checks the user's view permission on the channel.
func (c *Client) CanRead(channelID, userID string) bool {
	perms, err := c.session.State.UserChannelPermissions(userID, channelID)
	if err != nil {
		perms, err = c.session.UserChannelPermissions(userID, channelID)
		if err != nil {
			return false
		}
	}
	return perms&discordgo.PermissionViewChannel != 0
}

// GuildName resolves a guild's display name.
func (c *Client) GuildName(guildID string) string {
	if g, err := c.session.State.Guild(guildID); err == nil {
		return g.Name
	}
	if g, err := c.session.Guild(guildID); err == nil {
		return g.Name
	}
	return guildID
}

// ChannelName resolves a channel's display name.
func (c *Client) ChannelName(channelID string) string {
	if ch, err := c.channel(channelID); err == nil {
		return ch.Name
	}
	return channelID
}

// EmojiKnown reports whether any guild the bot is in owns the emote.
func (c *Client) EmojiKnown(emojiID string) bool {
	c.session.State.RLock()
	defer c.session.State.RUnlock()

	for _, g := range c.session.State.Guilds {
		for _, e := range g.Emojis {
			if e.ID == emojiID {
				return true
			}
		}
	}
	return false
}

func (c *Client) channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := c.session.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return c.session.Channel(channelID)
}
