package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T, words ...string) *Moderator {
	t.Helper()
	m, err := NewModerator(words, '*')
	require.NoError(t, err)
	return m
}

func TestModerator_MasksListedWord(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "stupid")

	req.Equal("this is ******", m.Mask("this is stupid"))
}

func TestModerator_IgnoresCleanText(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "stupid")

	input := "a perfectly fine sentence"
	req.Equal(input, m.Mask(input))
}

func TestModerator_FoldsLeetSpeak(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "stupid")

	// Digit substitutions must not defeat the mask
	req.Equal("that was ******", m.Mask("that was 5tup1d"))
}

func TestModerator_MatchesAcrossCaseAndPunctuation(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "stupid")

	masked := m.Mask("so StUpId!")
	req.Equal("so ******!", masked)
}

func TestModerator_MasksMultipleOccurrences(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "jerk", "loser")

	req.Equal("**** meets *****", m.Mask("jerk meets loser"))
}

func TestDefaultWords_LoadsEmbeddedList(t *testing.T) {
	req := require.New(t)

	words, err := DefaultWords()

	req.NoError(err)
	req.NotEmpty(words)
	req.Contains(words, "stupid")
}
