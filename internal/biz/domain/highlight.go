package domain

import (
	"regexp"
	"time"
)

// Highlight is a keyword pattern owned by a user. When the pattern
// matches an incoming channel message, the owner is notified by DM.
type Highlight struct {
	OwnerID   string
	Pattern   string
	IsRegex   bool
	CreatedAt time.Time
}

// CompiledHighlight is the in-memory projection of a Highlight held by
// the cache. IsRegex reflects the mode the matcher actually runs in:
// a stored regex that failed to compile is demoted to literal
// whole-word matching and carries IsRegex = false here, while the
// stored row keeps its original flag for display.
type CompiledHighlight struct {
	OwnerID string
	Pattern string
	IsRegex bool
	Matcher *regexp.Regexp
}
