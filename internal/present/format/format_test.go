package format

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notegraf-cli/internal/links"
	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

func sample() api.Note {
	return api.Note{
		ID: "n1", Revision: "r1", Title: "Hello\tworld", NoteInner: "body\n",
		Prev:     api.StrPtr("n0"),
		Metadata: api.NoteMetadata{Tags: []string{"a", "b"}},
	}
}

func TestWritePlainNotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainNotes(&buf, []api.Note{sample()}, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id"))
	assert.Contains(t, lines[1], `Hello\tworld`)
	assert.Contains(t, lines[1], "a,b")
}

func TestWritePlainSequenceShowsNeighbours(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainSequence(&buf, []api.Note{sample()}, false, false))
	assert.Contains(t, buf.String(), "prev: n0\nnext: -\n")

	buf.Reset()
	require.NoError(t, WritePlainSequence(&buf, []api.Note{sample()}, true, false))
	assert.NotContains(t, buf.String(), "prev:")
}

func TestWritePlainLinks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainLinks(&buf, []links.Link{
		{ID: "a", Title: "Alpha", Tags: []string{"x"}},
		{ID: "b", Title: "Chapter", Transitive: true},
		{ID: "c", Err: errors.New("Not Found")},
	}))
	out := buf.String()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "~Chapter")
	assert.Contains(t, out, "error: Not Found")
}

func TestWritePlainSessions(t *testing.T) {
	now := time.UnixMilli(1700000600000)
	var buf bytes.Buffer
	require.NoError(t, WritePlainSessions(&buf, []session.Session{
		{Timestamp: 1700000000000, Label: "draft", Created: time.UnixMilli(1700000000000)},
		{Timestamp: 1700000300000, Created: time.UnixMilli(1700000300000)},
	}, now))
	out := buf.String()
	assert.Contains(t, out, "1700000000000")
	assert.Contains(t, out, "(10 minutes ago)")
	assert.Contains(t, out, "(untitled)")
}

func TestWriteNDJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []string{"a", "b"}))
	assert.Equal(t, "\"a\"\n\"b\"\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteYAML(&buf, sample()))
	assert.Contains(t, buf.String(), "id: n1")
	assert.Contains(t, buf.String(), "prev: n0")
}

func TestNoteMarkdown(t *testing.T) {
	md := noteMarkdown(sample(), true)
	assert.Contains(t, md, "**Prev:** n0 | **Next:** -")
	assert.NotContains(t, noteMarkdown(sample(), false), "**Prev:**")
}
