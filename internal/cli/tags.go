package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/present"
	"github.com/mithrel/notegraf-cli/internal/util"
)

func newTagsCmd() *cobra.Command {
	var outputMode string
	var limit int
	cmd := &cobra.Command{
		Use:   "tags [prefix]",
		Short: "List tags, fuzzy-filtered by an optional prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			tags, err := getApp(cmd).Client.Tags(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				tags = append([]string{}, util.ScoreCompletions(args[0], tags, limit)...)
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderStrings(w, tags, opts) })
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of fuzzy matches (0 for all)")
	addOutputFlag(cmd, &outputMode)
	return cmd
}
