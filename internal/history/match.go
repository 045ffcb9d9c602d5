package history

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher tests entry text against a search pattern. A pattern without
// glob metacharacters matches anywhere in the text; one with them must
// match the whole text. Matching ignores case.
type Matcher struct {
	g glob.Glob
}

// NewMatcher compiles pattern.
func NewMatcher(pattern string) (*Matcher, error) {
	pattern = strings.ToLower(pattern)
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "*" + glob.QuoteMeta(pattern) + "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Matcher{g: g}, nil
}

// Match reports whether text matches.
func (m *Matcher) Match(text string) bool {
	return m.g.Match(strings.ToLower(text))
}

// filter keeps the entries that match, at most limit of the newest when
// limit is positive.
func (m *Matcher) filter(entries []Entry, limit int) []Entry {
	var out []Entry
	for _, e := range entries {
		if m.Match(e.Text) {
			out = append(out, e)
		}
	}
	return tail(out, limit)
}

func tail(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}
