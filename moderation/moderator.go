// Package moderation masks forbidden words in relayed messages.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator holds an Aho-Corasick automaton built over a normalized
// word list. Matching runs on a normalized view of the input (lowercase,
// leet speak folded, punctuation stripped) while masking is applied to
// the original runes, so spacing and casing survive.
type Moderator struct {
	machine  *goahocorasick.Machine
	maskRune rune
}

// mapping ties each normalized rune back to its original index.
type mapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton from the given word list.
func NewModerator(words []string, maskRune rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = normalizeRunes([]rune(w))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: m, maskRune: maskRune}, nil
}

// Mask replaces every occurrence of a listed word with the mask rune.
func (m *Moderator) Mask(original string) string {
	mapped := m.normalize(original)
	if len(mapped.normalized) == 0 {
		return original
	}

	spans := m.machine.MultiPatternSearch(mapped.normalized, false)
	if len(spans) == 0 {
		return original
	}

	origRunes := []rune(original)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapped.origIdx) {
			continue
		}
		first := mapped.origIdx[start]
		last := mapped.origIdx[end-1]
		for i := first; i <= last; i++ {
			origRunes[i] = m.maskRune
		}
	}
	return string(origRunes)
}

func (m *Moderator) normalize(input string) mapping {
	origRunes := []rune(input)
	out := mapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := foldRune(r)
		if isNoise(clean) {
			continue
		}
		out.normalized = append(out.normalized, unicode.ToLower(clean))
		out.origIdx = append(out.origIdx, i)
	}
	return out
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := foldRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// foldRune maps common leet speak substitutions back to letters.
func foldRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies runes skipped during matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
