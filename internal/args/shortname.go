package args

import (
	"strings"

	"github.com/layerkit/layerstack/internal/lserr"
)

// ShortNames tracks the short flag names claimed so far while binding a
// keyword container to a command-line surface.
type ShortNames struct {
	used map[string]bool
}

// NewShortNames constructs a tracker seeded with already-claimed names.
func NewShortNames(seed ...string) *ShortNames {
	used := make(map[string]bool, len(seed))
	for _, s := range seed {
		used[s] = true
	}
	return &ShortNames{used: used}
}

// Used reports whether a candidate has already been claimed.
func (s *ShortNames) Used(name string) bool { return s.used[name] }

// Claim derives a deterministic short name for full and records it.
// Candidates are tried in order: increasing-length prefixes of the acronym
// built from the first letter of each underscore/hyphen-separated word, then
// a growing prefix of the first word combined with the remaining words'
// initials, and finally literal prefixes of the full name. The first unused
// candidate wins.
func (s *ShortNames) Claim(full string) (string, error) {
	words := splitWords(full)
	if len(words) == 0 {
		return "", lserr.New(lserr.KindRuntime, "cannot derive a short name for %q", full)
	}

	try := func(cand string) bool {
		if cand == "" || s.used[cand] {
			return false
		}
		s.used[cand] = true
		return true
	}

	acronym := ""
	for _, w := range words {
		acronym += string(w[0])
	}
	for i := 1; i <= len(acronym); i++ {
		if cand := acronym[:i]; try(cand) {
			return cand, nil
		}
	}

	rest := acronym[1:]
	first := words[0]
	for n := 2; n <= len(first); n++ {
		if cand := string(first[:n]) + rest; try(cand) {
			return cand, nil
		}
	}

	for i := 1; i <= len(full); i++ {
		if cand := full[:i]; try(cand) {
			return cand, nil
		}
	}

	return "", lserr.New(lserr.KindRuntime,
		"no unique short name available for %q", full)
}

// splitWords splits a flag name on underscores and hyphens, dropping empty
// segments.
func splitWords(name string) [][]rune {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	words := make([][]rune, 0, len(fields))
	for _, f := range fields {
		words = append(words, []rune(f))
	}
	return words
}
