package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/links"
	"github.com/mithrel/notegraf-cli/internal/present"
	"github.com/mithrel/notegraf-cli/internal/present/format"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

var linkKinds = []string{"references", "referents", "branches"}

func linkIDs(n api.Note, kind string) ([]string, error) {
	switch kind {
	case "references":
		return n.References, nil
	case "referents", "backlinks":
		return n.Referents, nil
	case "branches":
		return n.Branches, nil
	default:
		return nil, fmt.Errorf("unknown link kind %q (want references, referents or branches)", kind)
	}
}

func newNoteLinksCmd() *cobra.Command {
	var kind, outputMode string
	var transitive, idsOnly bool
	cmd := &cobra.Command{
		Use:   "links <id>",
		Short: "List the notes a note links to, is linked from, or branches into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			app := getApp(cmd)
			n, err := app.Client.GetNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ids, err := linkIDs(n, kind)
			if err != nil {
				return err
			}
			lopts := []links.Option{
				links.WithConcurrency(app.Cfg.GetInt("links.concurrency")),
				links.WithLocale(app.Locale()),
				links.WithLogger(app.Log),
			}
			if transitive {
				lopts = append(lopts, links.WithTransitive())
			}
			lazy := links.New(app.Client, ids, lopts...)
			if idsOnly {
				return format.WritePlainIDs(cmd.OutOrStdout(), lazy.Placeholder())
			}
			resolved, err := lazy.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderLinks(w, resolved, opts) })
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "referents", "references|referents|branches")
	cmd.Flags().BoolVar(&transitive, "transitive", false, "label untitled notes with the title of the nearest titled prev note")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print raw ids without fetching the linked notes")
	addOutputFlag(cmd, &outputMode)
	_ = cmd.RegisterFlagCompletionFunc("kind", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return linkKinds, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
