package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

// MatchConfig contains match engine configuration
type MatchConfig struct {
	HistoryLimit    int           // Messages fetched for the context snippet
	HistoryTimeout  time.Duration // Bound on the history fetch
	TitlePatternMax int           // Pattern truncation length in titles
}

// DefaultMatchConfig returns default match engine configuration
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		HistoryLimit:    5,
		HistoryTimeout:  5 * time.Second,
		TitlePatternMax: 50,
	}
}

// credentialTokenPatterns match credential-token substrings. A message
// containing one produces zero notifications regardless of matches.
var credentialTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z0-9]{24}\.[A-Za-z0-9]{6}\.[A-Za-z0-9_\-]{27}`),
	regexp.MustCompile(`mfa\.[A-Za-z0-9_\-]{84}`),
}

// ContainsCredentialToken checks a message against the credential
// safety patterns.
func ContainsCredentialToken(content string) bool {
	for _, p := range credentialTokenPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// MatchEngine applies each incoming message against the cached
// highlight set, enforcing the per-owner filter chain, and enqueues a
// rendered notification for every owner whose pattern hits. Failures
// never escape the engine; every failure path drops the affected
// notification.
type MatchEngine struct {
	cache    *HighlightCache
	recency  *RecencyTracker
	queue    *DispatchQueue
	snippets *SnippetBuilder
	gateway  repo.Gateway
	config   MatchConfig
}

// NewMatchEngine creates a new match engine
func NewMatchEngine(
	cache *HighlightCache,
	recency *RecencyTracker,
	queue *DispatchQueue,
	snippets *SnippetBuilder,
	gateway repo.Gateway,
	config MatchConfig,
) *MatchEngine {
	return &MatchEngine{
		cache:    cache,
		recency:  recency,
		queue:    queue,
		snippets: snippets,
		gateway:  gateway,
		config:   config,
	}
}

// HandleMessage processes one inbound channel message. The caller
// serialises messages per channel so recency state stays coherent
// with the history snapshot.
func (e *MatchEngine) HandleMessage(ctx context.Context, msg *domain.Message) {
	if msg.GuildID == "" {
		return
	}

	// Activity is recorded for every message, match or not.
	e.recency.Touch(msg.ChannelID, msg.AuthorID)

	if msg.AuthorBot {
		return
	}
	if ContainsCredentialToken(msg.Content) {
		fmt.Printf("[Matcher] Credential token in message %s, skipping\n", msg.ID)
		return
	}

	snap := e.cache.Snapshot()
	notified := make(map[string]bool)

	for _, h := range snap.Highlights {
		if h.OwnerID == msg.AuthorID || notified[h.OwnerID] {
			continue
		}
		if e.recency.Contains(msg.ChannelID, h.OwnerID) {
			continue
		}
		if owner := snap.Owners[h.OwnerID]; owner != nil {
			if owner.Blacklisted {
				continue
			}
			if owner.HasBlocked(msg.GuildID) || owner.HasBlocked(msg.AuthorID) {
				continue
			}
			if !owner.GuildAllowed(msg.GuildID) {
				continue
			}
		}
		if !e.gateway.IsMember(msg.GuildID, h.OwnerID) {
			continue
		}
		if !e.gateway.CanRead(msg.ChannelID, h.OwnerID) {
			continue
		}

		loc := h.Matcher.FindStringIndex(msg.Content)
		if loc == nil {
			continue
		}

		n, err := e.buildNotification(ctx, msg, h, [2]int{loc[0], loc[1]})
		if err != nil {
			fmt.Printf("[Matcher] Dropping notification for %s: %v\n", h.OwnerID, err)
			continue
		}
		e.queue.Enqueue(n) // refusal drops silently
		notified[h.OwnerID] = true
	}
}

// buildNotification fetches recent channel history and renders the
// context snippet. The fetch is bounded; on timeout the notification
// is dropped rather than partially rendered.
func (e *MatchEngine) buildNotification(ctx context.Context, msg *domain.Message, h *domain.CompiledHighlight, span [2]int) (*domain.Notification, error) {
	hctx, cancel := context.WithTimeout(ctx, e.config.HistoryTimeout)
	defer cancel()

	history, err := e.gateway.ChannelHistory(hctx, msg.ChannelID, e.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	title := fmt.Sprintf("Highlighted in %s/#%s with %q",
		e.gateway.GuildName(msg.GuildID),
		e.gateway.ChannelName(msg.ChannelID),
		TruncatePattern(h.Pattern, e.config.TitlePatternMax))

	return &domain.Notification{
		TargetUserID: h.OwnerID,
		Title:        title,
		Description:  e.snippets.Build(history, msg, span),
		MessageID:    msg.ID,
		ChannelID:    msg.ChannelID,
		CreatedAt:    msg.CreatedAt,
	}, nil
}
