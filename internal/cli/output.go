package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/present"
)

func addOutputFlag(cmd *cobra.Command, out *string) {
	cmd.Flags().StringVarP(out, "output", "o", "", "output mode: plain|pretty|json|ndjson|yaml (default from output.default)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return present.Modes, cobra.ShellCompDirectiveNoFileComp
	})
}

// outputOptions resolves --output against the configured default.
func outputOptions(cmd *cobra.Command, flag string, headers bool) (present.Options, error) {
	if flag == "" {
		flag = getApp(cmd).Cfg.GetString("output.default")
	}
	mode, err := present.ParseMode(flag)
	if err != nil {
		return present.Options{}, err
	}
	return present.Options{
		Mode:       mode,
		Headers:    headers,
		JSONIndent: isTerminal(cmd.OutOrStdout()),
	}, nil
}

// render pages human output and writes structured output directly.
func render(cmd *cobra.Command, opts present.Options, write func(io.Writer) error) error {
	if opts.Mode != present.ModePlain && opts.Mode != present.ModePretty {
		return write(cmd.OutOrStdout())
	}
	return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), write)
}
