package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/present"
	"github.com/mithrel/notegraf-cli/internal/sequence"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Read and write notes",
	}
	cmd.AddCommand(newNoteShowCmd())
	cmd.AddCommand(newNoteSeqCmd())
	cmd.AddCommand(newNoteRevisionsCmd())
	cmd.AddCommand(newNoteSearchCmd())
	cmd.AddCommand(newNoteLinksCmd())
	cmd.AddCommand(newNoteDeleteCmd())
	for _, c := range newNoteEditCmds() {
		cmd.AddCommand(c)
	}
	return cmd
}

func newNoteShowCmd() *cobra.Command {
	var revision, outputMode string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note, or one of its revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			app := getApp(cmd)
			var n api.Note
			if revision != "" {
				n, err = app.Client.GetRevision(cmd.Context(), args[0], revision)
			} else {
				n, err = app.Client.GetNote(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderNote(w, n, opts) })
		},
	}
	cmd.Flags().StringVarP(&revision, "revision", "r", "", "show this revision instead of the current one")
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newNoteSeqCmd() *cobra.Command {
	var recursive bool
	var outputMode string
	cmd := &cobra.Command{
		Use:   "seq <id>",
		Short: "Show the sequence a note belongs to",
		Long:  "Without --recursive only the note itself is shown, with its prev/next ids.\nWith --recursive the whole prev/next chain is fetched and shown in order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			notes, err := sequence.Resolve(cmd.Context(), getApp(cmd).Client, args[0], recursive)
			if err != nil {
				return err
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderSequence(w, notes, recursive, opts) })
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "R", false, "walk prev/next to both ends of the sequence")
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newNoteRevisionsCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "revisions <id>",
		Short: "List every revision of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, true)
			if err != nil {
				return err
			}
			revs, err := getApp(cmd).Client.ListRevisions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderNotes(w, revs, opts) })
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}
