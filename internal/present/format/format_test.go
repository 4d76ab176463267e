package format

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docgen/pkg/api"
)

type upper struct{}

func (upper) Terminal(md string, width int) (string, error) { return strings.ToUpper(md), nil }

func TestWritePlainStatus(t *testing.T) {
	var buf bytes.Buffer
	rows := []SectionRow{
		{Section: "about", Title: "About", Known: true, Complete: true},
		{Section: "faq", Title: "FAQ", Known: true},
		{Section: "usage", Title: "Usage\tnotes"},
	}
	require.NoError(t, WritePlainStatus(&buf, rows, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "section"))
	assert.Contains(t, lines[1], "✓")
	assert.Contains(t, lines[2], "○")
	assert.Contains(t, lines[3], `Usage\tnotes`)
}

func TestWriteDrafts(t *testing.T) {
	saved := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	drafts := []api.Draft{{Section: "about", Fields: []api.Field{{Name: "description", Value: "a\nb"}}, Fingerprint: "0123456789abcdef", SavedAt: saved}}

	var buf bytes.Buffer
	require.NoError(t, WritePlainDrafts(&buf, drafts, false))
	assert.Contains(t, buf.String(), "0123456789ab ")
	assert.NotContains(t, buf.String(), "cdef")

	buf.Reset()
	require.NoError(t, WritePlainDraft(&buf, drafts[0]))
	assert.Equal(t, "description  a\\nb\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteNDJSONDrafts(&buf, append(drafts, drafts[0])))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestWriteMarkdownAndPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, "# T\n\n\n"))
	assert.Equal(t, "# T\n", buf.String())

	buf.Reset()
	require.NoError(t, WritePretty(&buf, "# t", upper{}, 80))
	assert.Equal(t, "# T", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, map[string]int{"a": 1}, false))
	assert.Equal(t, "{\"a\":1}\n", buf.String())
}
