package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/present"
	"github.com/mithrel/notegraf-cli/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage locally autosaved drafts",
	}
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionDeleteCmd())
	return cmd
}

// parseTarget reads "<kind> [id]" from the front of args and returns the rest.
func parseTarget(args []string) (session.Target, []string, error) {
	if len(args) == 0 {
		return session.Target{}, nil, fmt.Errorf("missing session kind (new, edit, branch or append)")
	}
	kind, err := session.ParseKind(args[0])
	if err != nil {
		return session.Target{}, nil, err
	}
	t := session.Target{Kind: kind}
	rest := args[1:]
	if kind != session.KindNew {
		if len(rest) == 0 {
			return session.Target{}, nil, fmt.Errorf("%s sessions need a note id", kind)
		}
		t.NoteID, rest = rest[0], rest[1:]
	}
	return t, rest, nil
}

func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return []string{"new", "edit", "branch", "append"}, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func newSessionListCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:               "list <kind> [id]",
		Short:             "List drafts for a target",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, rest, err := parseTarget(args)
			if err != nil {
				return err
			}
			if len(rest) > 0 {
				return fmt.Errorf("unexpected argument %q", rest[0])
			}
			opts, err := outputOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			store, err := getApp(cmd).Store(cmd.Context())
			if err != nil {
				return err
			}
			ss, err := session.List(cmd.Context(), store, target.Prefix())
			if err != nil {
				return err
			}
			if len(ss) == 0 && opts.Mode == present.ModePlain {
				fmt.Fprintf(cmd.ErrOrStderr(), "No drafts for %s\n", target.Verb())
				return nil
			}
			return render(cmd, opts, func(w io.Writer) error { return present.RenderSessions(w, ss, opts) })
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newSessionDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:               "delete <kind> [id] <timestamp>",
		Short:             "Delete a draft; the server is not contacted",
		Args:              cobra.RangeArgs(2, 3),
		ValidArgsFunction: completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, rest, err := parseTarget(args)
			if err != nil {
				return err
			}
			if len(rest) != 1 {
				return fmt.Errorf("expected exactly one session timestamp")
			}
			key, err := session.KeyFor(target.Prefix(), rest[0])
			if err != nil {
				return err
			}
			if err := confirm(cmd, fmt.Sprintf("Delete draft %s for %s?", rest[0], target.Verb()), yes); err != nil {
				return err
			}
			store, err := getApp(cmd).Store(cmd.Context())
			if err != nil {
				return err
			}
			if err := session.Delete(cmd.Context(), store, key); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted draft %s\n", rest[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
