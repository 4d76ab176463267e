package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sections = []string{"project_info", "about", "installation", "usage", "api_docs", "faq", "structure"}

func TestResolve(t *testing.T) {
	got, err := Resolve("About", sections)
	require.NoError(t, err)
	assert.Equal(t, "about", got)

	got, err = Resolve("inst", sections)
	require.NoError(t, err)
	assert.Equal(t, "installation", got)

	got, err = Resolve("apid", sections)
	require.NoError(t, err)
	assert.Equal(t, "api_docs", got)

	_, err = Resolve("zzz", sections)
	require.Error(t, err)
	_, err = Resolve(" ", sections)
	require.Error(t, err)
}

func TestScoreCompletions(t *testing.T) {
	assert.Equal(t, sections, ScoreCompletions("", sections, 3))
	out := ScoreCompletions("u", sections, 2)
	assert.Len(t, out, 2)
	assert.Nil(t, ScoreCompletions("qqq", sections, 2))
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"2h":               now.Add(-2 * time.Hour),
		"90m":              now.Add(-90 * time.Minute),
		"3d":               time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC),
		"1w":               time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
		"1mo":              time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
		"2024-01-02":       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"2024-01-02T08:30": time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseSince(in, now)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s want %s", in, got, want)
	}
	for _, bad := range []string{"", "xd", "yesterday"} {
		_, err := ParseSince(bad, now)
		assert.Error(t, err, bad)
	}
}
