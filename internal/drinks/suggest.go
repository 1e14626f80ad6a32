package drinks

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type nameSource []string

func (s nameSource) String(i int) string { return s[i] }
func (s nameSource) Len() int            { return len(s) }

// Suggest fuzzy-matches query against candidates and returns at most limit
// names, best match first. limit <= 0 means no limit.
func Suggest(query string, candidates []string, limit int) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, nameSource(candidates))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = candidates[m.Index]
	}
	return out
}
