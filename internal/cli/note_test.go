package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notegraf-cli/internal/apitest"
	"github.com/mithrel/notegraf-cli/internal/client"
	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

func TestNoteShow(t *testing.T) {
	e := newEnv(t, apitest.Chain("n0", "n1")...)

	out, _, err := e.run(t, "", "note", "show", "n1")
	require.NoError(t, err)
	assert.Contains(t, out, "Note n1")
	assert.Contains(t, out, "body of n1")

	out, _, err = e.run(t, "", "note", "show", "n1", "-o", "json")
	require.NoError(t, err)
	var n api.Note
	require.NoError(t, json.Unmarshal([]byte(out), &n))
	assert.Equal(t, "n0", n.PrevID())
}

func TestNoteShowRevision(t *testing.T) {
	e := newEnv(t, apitest.Chain("a")...)
	cur, _ := e.srv.Note("a")
	first := cur.Revision
	cur.Title = "renamed"
	e.srv.Put(cur)

	out, _, err := e.run(t, "", "note", "show", "a", "--revision", first)
	require.NoError(t, err)
	assert.Contains(t, out, "Note a")

	out, _, err = e.run(t, "", "note", "revisions", "a")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "renamed")
}

func TestNoteSeq(t *testing.T) {
	e := newEnv(t, apitest.Chain("n0", "n1", "n2")...)

	out, _, err := e.run(t, "", "note", "seq", "n1", "--recursive", "-o", "json")
	require.NoError(t, err)
	var ns []api.Note
	require.NoError(t, json.Unmarshal([]byte(out), &ns))
	require.Len(t, ns, 3)
	assert.Equal(t, []string{"n0", "n1", "n2"}, []string{ns[0].ID, ns[1].ID, ns[2].ID})

	out, _, err = e.run(t, "", "note", "seq", "n1")
	require.NoError(t, err)
	assert.Contains(t, out, "prev: n0\nnext: n2")
}

func TestNoteSearch(t *testing.T) {
	notes := apitest.Chain("a", "b")
	notes[1].Metadata.Tags = []string{"project"}
	e := newEnv(t, notes...)

	out, _, err := e.run(t, "", "note", "search", "--tags", "project")
	require.NoError(t, err)
	assert.Contains(t, out, "Note b")
	assert.NotContains(t, out, "Note a")

	_, errOut, err := e.run(t, "", "note", "search", "#nothing")
	assert.ErrorIs(t, err, client.ErrNoMatch)
	assert.Contains(t, errOut, "No notes match")

	e.srv.FailWith("/api/v1/note", 500)
	_, _, err = e.run(t, "", "note", "search", "#nothing")
	assert.NotErrorIs(t, err, client.ErrNoMatch)
	assert.ErrorContains(t, err, "search failed")
}

func TestNoteLinks(t *testing.T) {
	notes := apitest.Chain("head", "tail")
	notes[1].Title = ""
	notes = append(notes, api.Note{ID: "hub", Title: "Hub", Referents: []string{"tail", "gone", "head"}})
	e := newEnv(t, notes...)

	out, _, err := e.run(t, "", "note", "links", "hub", "--kind", "referents", "--transitive", "-o", "json")
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)

	byID := map[string]map[string]any{}
	for _, l := range got {
		byID[l["id"].(string)] = l
	}
	assert.Equal(t, "Note head", byID["tail"]["title"])
	assert.Equal(t, true, byID["tail"]["transitive"])
	assert.Contains(t, byID["gone"]["error"], "Not Found")

	out, _, err = e.run(t, "", "note", "links", "hub", "--ids")
	require.NoError(t, err)
	assert.Equal(t, "tail\ngone\nhead\n", out)

	_, _, err = e.run(t, "", "note", "links", "hub", "--kind", "siblings")
	assert.Error(t, err)
}

func TestNoteDelete(t *testing.T) {
	e := newEnv(t, apitest.Chain("a", "b")...)

	_, _, err := e.run(t, "n\n", "note", "delete", "a")
	assert.ErrorIs(t, err, errNotConfirmed)
	_, ok := e.srv.Note("a")
	assert.True(t, ok)

	out, _, err := e.run(t, "y\n", "note", "delete", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted a")

	_, _, err = e.run(t, "", "note", "delete", "b", "--yes")
	require.NoError(t, err)
	_, ok = e.srv.Note("b")
	assert.False(t, ok)
}

func TestTags(t *testing.T) {
	notes := apitest.Chain("a", "b")
	notes[0].Metadata.Tags = []string{"project", "reading"}
	notes[1].Metadata.Tags = []string{"personal"}
	e := newEnv(t, notes...)

	out, _, err := e.run(t, "", "tags")
	require.NoError(t, err)
	assert.Equal(t, "personal\nproject\nreading\n", out)

	out, _, err = e.run(t, "", "tags", "prj")
	require.NoError(t, err)
	assert.Equal(t, "project\n", out)
}

func sessionsFor(t *testing.T, e *env, args ...string) []session.Session {
	t.Helper()
	out, _, err := e.run(t, "", append([]string{"session", "list"}, append(args, "-o", "json")...)...)
	require.NoError(t, err)
	var ss []session.Session
	require.NoError(t, json.Unmarshal([]byte(out), &ss))
	return ss
}

func TestNoteNewSubmitsAndClearsDraft(t *testing.T) {
	e := newEnv(t)
	fakeEditor(t, "Title: Fresh\nTags: a, b\nMetadata: {}\n---\nhello http://"+strings.TrimPrefix(e.srv.URL, "http://")+"/note/n9\n")

	out, _, err := e.run(t, "", "note", "new")
	require.NoError(t, err)
	assert.Equal(t, "n1\tFresh\n", out)

	subs := e.srv.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "note", subs[0].Endpoint)
	assert.Equal(t, "hello notegraf:/note/n9", subs[0].Body.NoteInner)
	assert.Equal(t, "a,b", subs[0].Body.MetadataTags)

	assert.Empty(t, sessionsFor(t, e, "new"))
}

func TestNoteNewWithoutChangesSubmitsNothing(t *testing.T) {
	e := newEnv(t)
	noopEditor(t)

	_, errOut, err := e.run(t, "", "note", "new")
	require.NoError(t, err)
	assert.Contains(t, errOut, "No changes")
	assert.Empty(t, e.srv.Submissions())
	assert.Empty(t, sessionsFor(t, e, "new"))
}

func TestInvalidDraftIsKeptAndResumed(t *testing.T) {
	e := newEnv(t, apitest.Chain("n1")...)
	fakeEditor(t, "Title: Edited\nTags:\nMetadata: {broken\n---\nnew body\n")

	_, _, err := e.run(t, "", "note", "edit", "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft kept")
	assert.Empty(t, e.srv.Submissions())

	ss := sessionsFor(t, e, "edit", "n1")
	require.Len(t, ss, 1)
	assert.Equal(t, "Edited", ss[0].Label)

	// Resume the same draft and fix the metadata.
	fakeEditor(t, "Title: Edited\nTags: x\nMetadata: {\"ok\": true}\n---\nnew body\n")
	ts := ss[0].Key[strings.LastIndexByte(ss[0].Key, '.')+1:]
	out, _, err := e.run(t, "", "note", "edit", "n1", "--session", ts)
	require.NoError(t, err)
	assert.Equal(t, "n1\tEdited\n", out)

	subs := e.srv.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "note/n1/revision", subs[0].Endpoint)
	assert.Equal(t, `{"ok": true}`, subs[0].Body.MetadataCustomMetadata)
	assert.Empty(t, sessionsFor(t, e, "edit", "n1"))

	n, _ := e.srv.Note("n1")
	assert.Equal(t, "new body", n.NoteInner)
}

func TestRestoredDraftSubmitsWithoutEdits(t *testing.T) {
	e := newEnv(t, apitest.Chain("n1")...)
	e.srv.FailWith("/api/v1/note/n1/next", 503)
	fakeEditor(t, "Title: Later\nMetadata: {}\n---\nnext part\n")

	_, _, err := e.run(t, "", "note", "append", "n1")
	require.Error(t, err)
	require.Len(t, sessionsFor(t, e, "append", "n1"), 1)

	e.srv.FailWith("/api/v1/note/n1/next", 0)
	noopEditor(t)
	out, _, err := e.run(t, "", "note", "append", "n1")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\tLater\n"))

	head, _ := e.srv.Note("n1")
	require.NotNil(t, head.Next)
	assert.Empty(t, sessionsFor(t, e, "append", "n1"))
}

func TestEmptyMetadataBlocksSubmit(t *testing.T) {
	e := newEnv(t)
	fakeEditor(t, "Title: T\nMetadata:\n---\nbody\n")

	_, _, err := e.run(t, "", "note", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft kept")
	assert.Empty(t, e.srv.Submissions())
}

func TestEditorFailureKeepsDraftFile(t *testing.T) {
	e := newEnv(t, apitest.Chain("n1")...)
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "false")

	_, _, err := e.run(t, "", "note", "branch", "n1")
	assert.ErrorContains(t, err, "editor exited")
	assert.Empty(t, e.srv.Submissions())
}

func TestSessionDelete(t *testing.T) {
	e := newEnv(t)
	fakeEditor(t, "Title: draft\n---\n\n")

	// An empty body fails validation and leaves the draft behind.
	_, _, err := e.run(t, "", "note", "new", "--new-session")
	require.Error(t, err)
	ss := sessionsFor(t, e, "new")
	require.Len(t, ss, 1)
	ts := ss[0].Key[strings.LastIndexByte(ss[0].Key, '.')+1:]

	out, _, err := e.run(t, "", "session", "list", "new")
	require.NoError(t, err)
	assert.Contains(t, out, ts)
	assert.Contains(t, out, "draft")

	_, _, err = e.run(t, "", "session", "delete", "new", ts, "--yes")
	require.NoError(t, err)
	assert.Empty(t, sessionsFor(t, e, "new"))

	_, _, err = e.run(t, "", "session", "delete", "edit", ts)
	assert.Error(t, err)
	_, _, err = e.run(t, "", "session", "list", "rename")
	assert.Error(t, err)
}
