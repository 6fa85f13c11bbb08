package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

// EmbedDescriptionLimit is the platform's embed description cap. The
// snippet drops its oldest lines until the rendered context fits.
const EmbedDescriptionLimit = 2048

// authorGlyph prefixes every snippet line; emotePlaceholder stands in
// for custom emotes the bot cannot resolve.
const (
	authorGlyph      = "\U0001F464"
	emotePlaceholder = "❔"
	emphasisOpen     = "**__"
	emphasisClose    = "__**"
)

// customEmotePattern matches inline custom emote references of the
// form <:name:id> or <a:name:id>.
var customEmotePattern = regexp.MustCompile(`<a?:\w+:(\d+)>`)

// SnippetBuilder renders the context snippet delivered with a
// highlight notification: the matched message plus up to four
// preceding messages with the matched span emphasised.
type SnippetBuilder struct {
	gateway repo.Gateway
}

// NewSnippetBuilder creates a new snippet builder
func NewSnippetBuilder(gateway repo.Gateway) *SnippetBuilder {
	return &SnippetBuilder{gateway: gateway}
}

// Build renders the snippet. history is most-recent-first as returned
// by the gateway; target is the matched message and span the matched
// byte range inside its content.
func (b *SnippetBuilder) Build(history []*domain.Message, target *domain.Message, span [2]int) string {
	lines := make([]string, 0, len(history)+1)

	// Oldest first; make sure the matched message is present even if
	// the history fetch raced past it.
	seen := false
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.ID == target.ID {
			lines = append(lines, b.renderLine(target, span))
			seen = true
			continue
		}
		lines = append(lines, b.renderLine(msg, [2]int{-1, -1}))
	}
	if !seen {
		lines = append(lines, b.renderLine(target, span))
	}

	footer := fmt.Sprintf("\n[Jump to message](%s)", target.JumpURL())

	// Drop oldest lines until the description fits the embed limit.
	for len(lines) > 1 && snippetLen(lines, footer) > EmbedDescriptionLimit {
		lines = lines[1:]
	}

	// The matched line alone can still overflow; cut it at a rune
	// boundary so the footer always fits.
	if excess := snippetLen(lines, footer) - EmbedDescriptionLimit; excess > 0 {
		last := lines[len(lines)-1]
		keep := len(last) - excess
		if keep < 0 {
			keep = 0
		}
		for keep > 0 && !utf8.RuneStart(last[keep]) {
			keep--
		}
		lines[len(lines)-1] = last[:keep]
	}

	return strings.Join(lines, "\n") + footer
}

func snippetLen(lines []string, footer string) int {
	n := len(footer)
	for i, line := range lines {
		if i > 0 {
			n++
		}
		n += len(line)
	}
	return n
}

// renderLine renders one history line. A non-negative span wraps the
// matched range in strong-underline markers.
func (b *SnippetBuilder) renderLine(msg *domain.Message, span [2]int) string {
	content := msg.Content
	if span[0] >= 0 && span[1] <= len(content) && span[0] < span[1] {
		content = content[:span[0]] + emphasisOpen + content[span[0]:span[1]] + emphasisClose + content[span[1]:]
	}
	content = b.replaceUnknownEmotes(content)
	return fmt.Sprintf("%s %s: %s", authorGlyph, msg.AuthorName, content)
}

// replaceUnknownEmotes swaps custom emote references the bot cannot
// resolve for a placeholder glyph.
func (b *SnippetBuilder) replaceUnknownEmotes(content string) string {
	return customEmotePattern.ReplaceAllStringFunc(content, func(ref string) string {
		sub := customEmotePattern.FindStringSubmatch(ref)
		if len(sub) == 2 && b.gateway.EmojiKnown(sub[1]) {
			return ref
		}
		return emotePlaceholder
	})
}

// TruncatePattern shortens a pattern for display in the notification
// title.
func TruncatePattern(pattern string, max int) string {
	runes := []rune(pattern)
	if len(runes) <= max {
		return pattern
	}
	return string(runes[:max]) + "..."
}
