package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

func noteMarkdown(n api.Note, neighbours bool) string {
	var b strings.Builder
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "> **ID:** %s | **Revision:** %s\n>\n", n.ID, n.Revision)
	if !n.Metadata.ModifiedAt.IsZero() {
		fmt.Fprintf(&b, "> **Modified:** %s\n>\n", n.Metadata.ModifiedAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "> **Tags:** %s\n", strings.Join(n.Metadata.Tags, ", "))
	if p := n.ParentID(); p != "" {
		fmt.Fprintf(&b, ">\n> **Branched from:** %s\n", p)
	}
	if neighbours {
		fmt.Fprintf(&b, ">\n> **Prev:** %s | **Next:** %s\n", orDash(n.PrevID()), orDash(n.NextID()))
	}
	fmt.Fprintf(&b, "\n---\n\n%s\n", strings.TrimSpace(n.NoteInner))
	return b.String()
}

func render(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// WritePrettyNote renders a single note as markdown using glamour.
func WritePrettyNote(w io.Writer, n api.Note) error {
	return render(w, noteMarkdown(n, false))
}

// WritePrettySequence renders every note of a sequence in order.
func WritePrettySequence(w io.Writer, notes []api.Note, recursive bool) error {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = noteMarkdown(n, !recursive)
	}
	return render(w, strings.Join(parts, "\n\n"))
}
