package usecase

import (
	"fmt"

	"github.com/lumenbot/lumen/internal/biz/repo"
)

// ValidatePattern rejects regex patterns whose matching cost or match
// breadth is adversarial: unbounded or generic quantifiers, the
// catch-all dot, and heavy use of alternation or character classes are
// the known abuse vectors for highlighting everything that moves.
// Rejection is advisory; nothing is rewritten. Literal patterns skip
// this entirely.
func ValidatePattern(pattern string) error {
	bars := 0
	classes := 0

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' {
			// Escaped sequence: character classes still count, any
			// other escaped character is harmless.
			if i+1 < len(pattern) {
				switch pattern[i+1] {
				case 's', 'S', 'd', 'D', 'w', 'W':
					classes++
				}
				i++
			}
			continue
		}

		switch c {
		case '*', '+':
			return fmt.Errorf("%w: unbounded quantifier %q", repo.ErrPatternRejected, string(c))
		case '.':
			return fmt.Errorf("%w: catch-all %q", repo.ErrPatternRejected, ".")
		case '|':
			bars++
		case '{':
			if isQuantifier(pattern[i:]) {
				return fmt.Errorf("%w: generic quantifier", repo.ErrPatternRejected)
			}
		}
	}

	if bars > 5 {
		return fmt.Errorf("%w: too many alternations (%d)", repo.ErrPatternRejected, bars)
	}
	if classes > 5 {
		return fmt.Errorf("%w: too many character classes (%d)", repo.ErrPatternRejected, classes)
	}
	return nil
}

// isQuantifier recognises {n} and {n,m} at the start of s (s begins
// with the unescaped '{'). A brace not followed by that shape is a
// literal and passes.
func isQuantifier(s string) bool {
	j := 1
	digits := 0
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
		digits++
	}
	if digits == 0 {
		return false
	}
	if j < len(s) && s[j] == ',' {
		j++
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
	}
	return j < len(s) && s[j] == '}'
}
