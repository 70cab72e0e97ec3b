package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/notegraf-cli/internal/client"
	"github.com/mithrel/notegraf-cli/internal/config"
	"github.com/mithrel/notegraf-cli/internal/wire"
)

type ctxKey string

const (
	appKey  ctxKey = "app"
	appsKey ctxKey = "apps"
)

// skipApp marks commands that must run without a valid config.
const skipApp = "notegraf/skip-app"

// Execute builds the root command and runs it.
func Execute(ctx context.Context) error {
	return Run(ctx, NewRootCmd())
}

// Run executes cmd and closes every app it opened, whether or not the
// command failed.
func Run(ctx context.Context, cmd *cobra.Command) error {
	_, err := execute(ctx, cmd)
	return err
}

func execute(ctx context.Context, cmd *cobra.Command) ([]*wire.App, error) {
	opened := &openApps{}
	err := cmd.ExecuteContext(context.WithValue(ctx, appsKey, opened))
	if cerr := opened.close(); err == nil {
		err = cerr
	}
	return opened.apps, err
}

// openApps tracks apps built during one execution.
type openApps struct {
	mu   sync.Mutex
	apps []*wire.App
}

func (o *openApps) add(app *wire.App) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.apps = append(o.apps, app)
}

func (o *openApps) close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs []error
	for _, app := range o.apps {
		if err := app.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExitCode maps a command error to a process exit status: 1 when a search
// matched nothing, 2 for every other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, client.ErrNoMatch):
		return 1
	default:
		return 2
	}
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "notegraf-cli",
		Short:         "Terminal client for notegraf notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipApp] == "true" {
				return nil
			}
			app, err := loadApp(cmd, cfgPath)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml|yaml)")
	cmd.PersistentFlags().String("api-url", "", "notegraf server base URL (overrides api.url)")
	cmd.PersistentFlags().String("log-level", "", "trace|debug|info|warn|error|off (overrides log.level)")
	cmd.PersistentFlags().Bool("ephemeral", false, "keep drafts in memory only for this run (store_url = mem://)")

	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func loadApp(cmd *cobra.Command, cfgPath string) (*wire.App, error) {
	v := viper.New()
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	}
	if err := config.Load(cmd.Context(), v); err != nil {
		return nil, err
	}
	applyConfigFlagOverrides(cmd, v, map[string]string{
		"api-url":   "api.url",
		"log-level": "log.level",
	})
	if eph, _ := cmd.Flags().GetBool("ephemeral"); eph {
		v.Set("store_url", "mem://")
	}
	app, err := wire.BuildApp(cmd.Context(), v, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if opened, ok := cmd.Context().Value(appsKey).(*openApps); ok {
		opened.add(app)
	}
	return app, nil
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(2)
	}
	return v.(*wire.App)
}

// completionApp builds an app for shell completion, where the persistent
// pre-run hook does not fire.
func completionApp(cmd *cobra.Command) (*wire.App, bool) {
	if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
		return app, true
	}
	cfgPath, _ := cmd.Flags().GetString("config")
	app, err := loadApp(cmd, cfgPath)
	if err != nil {
		return nil, false
	}
	return app, true
}
