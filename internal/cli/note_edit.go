package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/autosave"
	"github.com/mithrel/notegraf-cli/internal/config"
	"github.com/mithrel/notegraf-cli/internal/editor"
	"github.com/mithrel/notegraf-cli/internal/form"
	"github.com/mithrel/notegraf-cli/internal/kv"
	"github.com/mithrel/notegraf-cli/internal/present/tui"
	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/internal/wire"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

type sessionFlags struct {
	ts    string
	fresh bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.ts, "session", "s", "", "resume the draft with this timestamp")
	cmd.Flags().BoolVarP(&f.fresh, "new-session", "n", false, "start a new draft even if others exist")
	cmd.MarkFlagsMutuallyExclusive("session", "new-session")
}

func newNoteEditCmds() []*cobra.Command {
	defs := []struct {
		kind  session.Kind
		use   string
		short string
	}{
		{session.KindNew, "new", "Write a new note"},
		{session.KindEdit, "edit <id>", "Edit a note, creating a new revision"},
		{session.KindBranch, "branch <id>", "Write a new note branched from a note"},
		{session.KindAppend, "append <id>", "Write a new note after a note in its sequence"},
	}
	out := make([]*cobra.Command, 0, len(defs))
	for _, s := range defs {
		var flags sessionFlags
		args := cobra.ExactArgs(1)
		if s.kind == session.KindNew {
			args = cobra.NoArgs
		}
		cmd := &cobra.Command{
			Use:   s.use,
			Short: s.short,
			Long: s.short + ".\n\nThe draft is autosaved locally while the editor is open and kept until it\n" +
				"is submitted, so an interrupted or rejected edit can be resumed with --session.",
			Args: args,
			RunE: func(cmd *cobra.Command, args []string) error {
				target := session.Target{Kind: s.kind}
				if len(args) > 0 {
					target.NoteID = args[0]
				}
				return runEditFlow(cmd, target, flags)
			},
		}
		flags.register(cmd)
		out = append(out, cmd)
	}
	return out
}

// runEditFlow picks a draft, edits it in $EDITOR with autosave running, then
// validates and submits it. The draft survives any failure before a
// successful submission.
func runEditFlow(cmd *cobra.Command, target session.Target, flags sessionFlags) error {
	ctx := cmd.Context()
	app := getApp(cmd)
	if err := target.Validate(); err != nil {
		return err
	}
	store, err := app.Store(ctx)
	if err != nil {
		return err
	}

	var note *api.Note
	if target.NoteID != "" {
		n, err := app.Client.GetNote(ctx, target.NoteID)
		if err != nil {
			return err
		}
		note = &n
	}

	key, err := chooseSession(cmd, store, target, flags)
	if err != nil {
		return err
	}
	ts := strings.TrimPrefix(key, target.Prefix()+".")
	log := app.Log.With().Str("session", ts).Logger()

	var initial api.FormValues
	binder, err := autosave.Bind(ctx, autosave.Options{
		Store:    store,
		Key:      key,
		Defaults: form.Defaults(target, note),
		Interval: config.Duration(app.Cfg, "autosave.interval", autosave.DefaultInterval),
		Epoch:    app.Epoch,
		Apply:    func(v api.FormValues) { initial = v },
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer binder.Close()
	if binder.Restored() {
		log.Info().Msg("restored draft")
	}

	final, changed, err := editBuffer(ctx, app, key, initial, binder)
	if err != nil {
		if ferr := binder.Flush(ctx); ferr != nil {
			log.Warn().Err(ferr).Msg("could not save draft")
		}
		return err
	}
	if !changed && !binder.Restored() {
		fmt.Fprintln(cmd.ErrOrStderr(), "No changes; nothing submitted.")
		return nil
	}
	binder.Observe(final)
	if err := binder.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("could not save draft")
	}

	if err := form.Validate(final); err != nil {
		return fmt.Errorf("%s: %w (draft kept, resume with --session %s)", target.Verb(), err, ts)
	}
	loc, err := app.Client.Submit(ctx, target.Endpoint(), form.Submission(final, config.Origin(app.Cfg)))
	if err != nil {
		return fmt.Errorf("%s: %w (draft kept, resume with --session %s)", target.Verb(), err, ts)
	}

	binder.Close()
	if err := session.Delete(ctx, store, key); err != nil {
		log.Warn().Err(err).Msg("could not clear submitted draft")
	}
	app.Epoch.Advance()
	if !app.Cfg.GetBool("editor.keep_tmp") {
		if path, err := editor.PathForKey(key); err == nil {
			_ = os.Remove(path)
		}
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", loc.NoteID(), strings.TrimSpace(final.Title))
	return nil
}

// chooseSession resolves --session/--new-session, or asks when several
// drafts exist. Without a terminal the most recent draft is resumed.
func chooseSession(cmd *cobra.Command, store kv.Store, target session.Target, flags sessionFlags) (string, error) {
	prefix := target.Prefix()
	if flags.ts != "" {
		return session.KeyFor(prefix, flags.ts)
	}
	if flags.fresh {
		return session.New(prefix, time.Now()), nil
	}
	existing, err := session.List(cmd.Context(), store, prefix)
	if err != nil {
		return "", err
	}
	if len(existing) == 0 {
		return session.New(prefix, time.Now()), nil
	}
	if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return existing[len(existing)-1].Key, nil
	}
	choice, err := tui.PickSession(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), "Drafts for "+target.Verb(), existing)
	if err != nil {
		return "", err
	}
	if choice.New {
		return session.New(prefix, time.Now()), nil
	}
	return choice.Key, nil
}

// editBuffer opens the draft in the editor, feeding every save to the binder.
func editBuffer(ctx context.Context, app *wire.App, key string, initial api.FormValues, binder *autosave.Binder) (api.FormValues, bool, error) {
	path, err := editor.PathForKey(key)
	if err != nil {
		return api.FormValues{}, false, err
	}
	content := []byte(editor.ComposeContent(initial))
	if err := editor.Prepare(path, content); err != nil {
		return api.FormValues{}, false, err
	}

	watchCtx, stop := context.WithCancel(ctx)
	wait, err := editor.Watch(watchCtx, path, app.Log, binder.Observe)
	if err != nil {
		stop()
		return api.FormValues{}, false, err
	}
	editErr := editor.Edit(ctx, path)
	stop()
	_ = wait()
	if editErr != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(editErr, &exitErr) {
			return api.FormValues{}, false, fmt.Errorf("editor exited with status %d", exitErr.ExitCode())
		}
		return api.FormValues{}, false, editErr
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return api.FormValues{}, false, err
	}
	return editor.ParseEdited(string(out)), !bytes.Equal(out, content), nil
}
