// Package present selects an output format for each kind of result.
package present

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mithrel/notegraf-cli/internal/config"
	"github.com/mithrel/notegraf-cli/internal/links"
	"github.com/mithrel/notegraf-cli/internal/present/format"
	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeYAML
)

// Modes lists the accepted --output values.
var Modes = []string{"plain", "pretty", "json", "ndjson", "yaml"}

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	Now        time.Time
}

// ParseMode parses one of Modes.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return ModePlain, nil
	case "pretty":
		return ModePretty, nil
	case "json":
		return ModeJSON, nil
	case "ndjson":
		return ModeNDJSON, nil
	case "yaml", "yml":
		return ModeYAML, nil
	default:
		return ModePlain, fmt.Errorf("unknown output mode %q (want %s)", s, strings.Join(Modes, ", "))
	}
}

func structured(w io.Writer, v any, opts Options) (bool, error) {
	switch opts.Mode {
	case ModeJSON:
		return true, format.WriteJSON(w, v, opts.JSONIndent)
	case ModeNDJSON:
		return true, format.WriteNDJSON(w, v)
	case ModeYAML:
		return true, format.WriteYAML(w, v)
	}
	return false, nil
}

// RenderNote renders a single note.
func RenderNote(w io.Writer, n api.Note, opts Options) error {
	if ok, err := structured(w, n, opts); ok {
		return err
	}
	if opts.Mode == ModePretty {
		return format.WritePrettyNote(w, n)
	}
	return format.WritePlainNote(w, n, opts.Headers)
}

// RenderNotes renders a list such as search results or revisions.
func RenderNotes(w io.Writer, ns []api.Note, opts Options) error {
	if ok, err := structured(w, ns, opts); ok {
		return err
	}
	// Lists stay tabular in pretty mode.
	return format.WritePlainNotes(w, ns, opts.Headers)
}

// RenderSequence renders a resolved sequence in order.
func RenderSequence(w io.Writer, ns []api.Note, recursive bool, opts Options) error {
	if ok, err := structured(w, ns, opts); ok {
		return err
	}
	if opts.Mode == ModePretty {
		return format.WritePrettySequence(w, ns, recursive)
	}
	return format.WritePlainSequence(w, ns, recursive, opts.Headers)
}

// linkView carries Link.Err as text for structured output.
type linkView struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Tags       []string `json:"tags" yaml:"tags"`
	Transitive bool     `json:"transitive,omitempty" yaml:"transitive,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// RenderLinks renders resolved links.
func RenderLinks(w io.Writer, ls []links.Link, opts Options) error {
	views := make([]linkView, len(ls))
	for i, l := range ls {
		views[i] = linkView{ID: l.ID, Title: l.Title, Tags: l.Tags, Transitive: l.Transitive}
		if l.Err != nil {
			views[i].Error = l.Err.Error()
		}
	}
	if ok, err := structured(w, views, opts); ok {
		return err
	}
	return format.WritePlainLinks(w, ls)
}

// RenderSessions renders stored drafts.
func RenderSessions(w io.Writer, ss []session.Session, opts Options) error {
	if ok, err := structured(w, ss, opts); ok {
		return err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	return format.WritePlainSessions(w, ss, now)
}

// RenderStrings renders a flat list such as tags.
func RenderStrings(w io.Writer, vals []string, opts Options) error {
	if ok, err := structured(w, vals, opts); ok {
		return err
	}
	return format.WritePlainStrings(w, vals)
}

// RenderSettings renders resolved configuration as "key = value" lines.
func RenderSettings(w io.Writer, ss []config.Setting, opts Options) error {
	if ok, err := structured(w, ss, opts); ok {
		return err
	}
	lines := make([]string, len(ss))
	for i, s := range ss {
		lines[i] = s.Key + " = " + s.Value
	}
	return format.WritePlainStrings(w, lines)
}
