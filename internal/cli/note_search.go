package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/client"
	"github.com/mithrel/notegraf-cli/internal/form"
	"github.com/mithrel/notegraf-cli/internal/present"
	"github.com/mithrel/notegraf-cli/internal/util"
)

func newNoteSearchCmd() *cobra.Command {
	var outputMode, tags string
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search notes; with no query, list recent notes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, true)
			if err != nil {
				return err
			}
			query := buildQuery(args, tags)
			notes, err := getApp(cmd).Client.Search(cmd.Context(), query)
			if errors.Is(err, client.ErrNoMatch) {
				fmt.Fprintf(cmd.ErrOrStderr(), "No notes match %q\n", query)
				return err
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderNotes(w, notes, opts) })
		},
	}
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "comma-separated tags; each is added to the query as #tag")
	_ = cmd.RegisterFlagCompletionFunc("tags", completeTags)
	return cmd
}

func buildQuery(args []string, tags string) string {
	parts := append([]string(nil), args...)
	for _, t := range form.SplitTags(tags) {
		parts = append(parts, "#"+strings.TrimPrefix(t, "#"))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func completeTags(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	app, ok := completionApp(cmd)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	tags, err := app.Client.Tags(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return util.CompleteTagList(toComplete, tags, 20), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
