package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notegraf-cli/internal/apitest"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

type env struct {
	srv *apitest.Server
	cfg string
	dir string
}

// newEnv starts a fake API and writes a config pointing at it, with an
// on-disk autosave store shared by every invocation in the test.
func newEnv(t *testing.T, notes ...api.Note) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))
	t.Setenv("PAGER", "cat")
	srv := apitest.New(t, notes...)

	cfg := filepath.Join(dir, "config.toml")
	content := `data_dir = "` + dir + `"
store_url = "sqlite://` + filepath.Join(dir, "autosave.db") + `"

[api]
url = "` + srv.URL + `"
timeout = "5s"

[autosave]
interval = "50ms"
`
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	return &env{srv: srv, cfg: cfg, dir: dir}
}

func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.cfg}, args...))
	err := Run(context.Background(), cmd)
	return out.String(), errOut.String(), err
}

// fakeEditor makes $EDITOR replace the buffer with content.
func fakeEditor(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "content.md")
	require.NoError(t, os.WriteFile(src, []byte(content), 0o600))
	script := filepath.Join(dir, "editor")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat '"+src+"' > \"$1\"\n"), 0o700))
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", script)
}

// noopEditor leaves the buffer untouched.
func noopEditor(t *testing.T) {
	t.Helper()
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "true")
}

func TestExitCode(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "", "note", "search", "#project")
	assert.Equal(t, 1, ExitCode(err))

	_, _, err = e.run(t, "", "note", "show", "missing")
	assert.Equal(t, 2, ExitCode(err))
	assert.Equal(t, 0, ExitCode(nil))
}

func TestStoreClosedAfterFailedCommand(t *testing.T) {
	e := newEnv(t)
	fakeEditor(t, "Title: T\nMetadata: {}\n---\n\n")

	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", e.cfg, "note", "new"})
	apps, err := execute(context.Background(), cmd)
	require.Error(t, err)
	require.Len(t, apps, 1)

	store, err := apps[0].Store(context.Background())
	require.NoError(t, err)
	_, err = store.ListKeysWithPrefix(context.Background(), "autosave.")
	assert.Error(t, err, "store should be closed once the command returns")
}

func TestEphemeralStoreLeavesNoDraft(t *testing.T) {
	e := newEnv(t)
	fakeEditor(t, "Title: gone\nMetadata: {}\n---\n\n")

	_, _, err := e.run(t, "", "--ephemeral", "note", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft kept")
	assert.Empty(t, sessionsFor(t, e, "new"))
}

func TestFlagOverridesConfig(t *testing.T) {
	e := newEnv(t, apitest.Chain("a")...)
	_, _, err := e.run(t, "", "--api-url", "http://127.0.0.1:1", "note", "show", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Zero(t, e.srv.Total())
}

func TestInvalidConfigIsReported(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "", "--api-url", "not a url", "tags")
	assert.ErrorContains(t, err, "invalid config")
}

func TestConfigGenerate(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "gen", "config.toml")

	out, _, err := e.run(t, "", "config", "generate", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, _, err = e.run(t, "", "config", "generate", "--file", path)
	assert.ErrorContains(t, err, "already exists")

	out, _, err = e.run(t, "", "config", "generate", "--file", path, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "already up to date")
}

func TestConfigGenerateKeepsBackup(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "gen.toml")
	require.NoError(t, os.WriteFile(path, []byte("locale = \"fr\"\n"), 0o600))

	out, _, err := e.run(t, "", "config", "generate", "--file", path, "--overwrite")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup: "+path+".bak")

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "locale = \"fr\"\n", string(backup))

	out, _, err = e.run(t, "", "config", "generate", "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, "[autosave]")

	_, _, err = e.run(t, "", "config", "generate", "--stdout", "--update")
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	e := newEnv(t)
	t.Setenv("NOTEGRAF_API_TOKEN", "secret")

	out, _, err := e.run(t, "", "--api-url", "http://example.test/", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "api.url = http://example.test/\n")
	assert.Contains(t, out, "api.origin = http://example.test\n")
	assert.Contains(t, out, "autosave.interval = 50ms\n")
	assert.Contains(t, out, "api.token = ********\n")
	assert.NotContains(t, out, "secret")
}

func TestConfigGenerateIgnoresBrokenConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.cfg, []byte("[api\nurl="), 0o600))
	_, _, err := e.run(t, "", "config", "generate", "--file", filepath.Join(e.dir, "fresh.toml"))
	assert.NoError(t, err)
}

func TestCompletion(t *testing.T) {
	e := newEnv(t)
	out, _, err := e.run(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "notegraf-cli")
}
