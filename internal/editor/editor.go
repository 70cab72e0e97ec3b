// Package editor round-trips note forms through the user's $EDITOR.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

const (
	TitlePrefix    = "Title:"
	TagsPrefix     = "Tags:"
	MetadataPrefix = "Metadata:"
	Separator      = "---"
)

// ComposeContent renders form values as the editable buffer.
func ComposeContent(v api.FormValues) string {
	var b bytes.Buffer
	b.WriteString("# notegraf note\n")
	b.WriteString("# Lines starting with '#' above the '---' are ignored.\n")
	b.WriteString("# Tags are comma-separated. Metadata is a single-line JSON object.\n")
	b.WriteString(TitlePrefix + " " + v.Title + "\n")
	b.WriteString(TagsPrefix + " " + v.MetadataTags + "\n")
	b.WriteString(MetadataPrefix + " " + oneLine(v.MetadataCustomMetadata) + "\n")
	b.WriteString(Separator + "\n")
	// The body is always terminated by exactly one extra newline, which
	// ParseEdited strips again.
	b.WriteString(v.NoteInner)
	b.WriteString("\n")
	return b.String()
}

func oneLine(s string) string {
	var out bytes.Buffer
	if json.Compact(&out, []byte(s)) == nil {
		return out.String()
	}
	return strings.Join(strings.Fields(s), " ")
}

// ParseEdited extracts form values from an edited buffer.
func ParseEdited(s string) api.FormValues {
	var v api.FormValues
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	body := -1
	for i, line := range lines {
		trim := strings.TrimSpace(line)
		switch {
		case trim == Separator:
			body = i + 1
		case strings.HasPrefix(trim, "#"):
		case strings.HasPrefix(trim, TitlePrefix):
			v.Title = strings.TrimSpace(strings.TrimPrefix(trim, TitlePrefix))
		case strings.HasPrefix(trim, TagsPrefix):
			v.MetadataTags = strings.TrimSpace(strings.TrimPrefix(trim, TagsPrefix))
		case strings.HasPrefix(trim, MetadataPrefix):
			v.MetadataCustomMetadata = strings.TrimSpace(strings.TrimPrefix(trim, MetadataPrefix))
		}
		if body >= 0 {
			break
		}
	}
	if body >= 0 && body <= len(lines) {
		v.NoteInner = strings.TrimSuffix(strings.Join(lines[body:], "\n"), "\n")
	}
	return v
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathForKey returns the buffer file used for one autosave session.
func PathForKey(key string) (string, error) {
	name := sanitize(key) + ".notegraf.md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "notegraf", name), nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "notegraf", "edit", name), nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Prepare writes initial content to path with owner-only permissions.
func Prepare(path string, initial []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, initial, fs.FileMode(0o600))
}

// Edit runs $VISUAL or $EDITOR (or a common fallback) on an existing file
// attached to the current terminal.
func Edit(ctx context.Context, path string) error {
	// $VISUAL/$EDITOR may carry flags, so run it through a shell.
	ed := os.Getenv("VISUAL")
	if ed == "" {
		ed = os.Getenv("EDITOR")
	}
	var cmd *exec.Cmd
	if strings.TrimSpace(ed) != "" {
		cmd = exec.CommandContext(ctx, "sh", "-c", "$EDITORCMD \"$FILEPATH\"")
		cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	} else {
		prog, err := PreferredEditor()
		if err != nil {
			return err
		}
		cmd = exec.CommandContext(ctx, prog, path)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// FirstLine returns the first trimmed line, squashed and truncated.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 120 {
		s = string(r[:120])
	}
	return s
}
