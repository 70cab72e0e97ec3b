package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/notegraf-cli/internal/links"
	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/internal/util"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

// TSV columns: id, title, revision, modified, tags
var headerLine = "id\ttitle\trevision\tmodified\ttags\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func joinTags(tags []string) string { return strings.Join(tags, ",") }

func modified(n api.Note) string {
	if n.Metadata.ModifiedAt.IsZero() {
		return "-"
	}
	return n.Metadata.ModifiedAt.Local().Format("2006-01-02 15:04")
}

func noteRow(n api.Note) string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
		esc(n.ID), esc(n.Title), esc(n.Revision), modified(n), esc(joinTags(n.Metadata.Tags)))
}

// WritePlainNotes writes one TSV row per note.
func WritePlainNotes(w io.Writer, notes []api.Note, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, n := range notes {
		_, _ = io.WriteString(tw, noteRow(n))
	}
	return tw.Flush()
}

// WritePlainNote writes the note's row followed by its body.
func WritePlainNote(w io.Writer, n api.Note, headers bool) error {
	if err := WritePlainNotes(w, []api.Note{n}, headers); err != nil {
		return err
	}
	body := strings.TrimRight(n.NoteInner, "\n")
	if body == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n", body)
	return err
}

// WritePlainSequence writes each note in order. When the sequence was not
// expanded the neighbouring ids are listed so the user can follow them.
func WritePlainSequence(w io.Writer, notes []api.Note, recursive, headers bool) error {
	for i, n := range notes {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := WritePlainNote(w, n, headers && i == 0); err != nil {
			return err
		}
		if !recursive {
			if _, err := fmt.Fprintf(w, "\nprev: %s\nnext: %s\n", orDash(n.PrevID()), orDash(n.NextID())); err != nil {
				return err
			}
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// WritePlainLinks writes "id  title  tags", marking borrowed titles with "~"
// and showing lookup errors inline.
func WritePlainLinks(w io.Writer, ls []links.Link) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range ls {
		title := esc(l.Title)
		switch {
		case l.Err != nil:
			title = "error: " + esc(l.Err.Error())
		case l.Transitive:
			title = "~" + title
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", esc(l.ID), title, esc(joinTags(l.Tags)))
	}
	return tw.Flush()
}

// WritePlainIDs writes unresolved link ids, one per line.
func WritePlainIDs(w io.Writer, ids []string) error {
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}

// WritePlainSessions writes "timestamp  title  (N minutes ago)".
func WritePlainSessions(w io.Writer, ss []session.Session, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range ss {
		title := s.Label
		if title == "" {
			title = "(untitled)"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t(%s)\n", s.Timestamp, esc(title), util.Ago(s.Created, now))
	}
	return tw.Flush()
}

// WritePlainStrings writes one value per line.
func WritePlainStrings(w io.Writer, vals []string) error {
	for _, v := range vals {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
