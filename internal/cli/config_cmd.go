package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/notegraf-cli/internal/config"
	"github.com/mithrel/notegraf-cli/internal/present"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or generate configuration",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigGenerateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration in force after files, env and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, output, false)
			if err != nil {
				return err
			}
			app := getApp(cmd)
			if used := app.Cfg.ConfigFileUsed(); used != "" && opts.Mode == present.ModePlain {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "# from %s\n", used)
			}
			settings := config.Effective(app.Cfg)
			return render(cmd, opts, func(w io.Writer) error {
				return present.RenderSettings(w, settings, opts)
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// generateMode says what to do with an existing config file.
type generateMode int

const (
	generateFresh generateMode = iota
	generateOverwrite
	generateUpdate
)

func newConfigGenerateCmd() *cobra.Command {
	var (
		path              string
		overwrite, update bool
		stdout            bool
	)
	cmd := &cobra.Command{
		Use:         "generate",
		Short:       "Write a config.toml with every option and its default",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdout {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), config.RenderDefaultTOML())
				return err
			}
			if path == "" {
				path = config.DefaultConfigPath()
			}
			mode := generateFresh
			switch {
			case overwrite:
				mode = generateOverwrite
			case update:
				mode = generateUpdate
			}
			return generateConfig(cmd.OutOrStdout(), path, mode)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "output path (default: the user config path)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file, keeping a backup")
	cmd.Flags().BoolVar(&update, "update", false, "add missing options to an existing file, keeping a backup")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the default config instead of writing a file")
	cmd.MarkFlagsMutuallyExclusive("overwrite", "update", "stdout")
	return cmd
}

func generateConfig(out io.Writer, path string, mode generateMode) error {
	existing, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	var content string
	switch {
	case exists && mode == generateFresh:
		return fmt.Errorf("config already exists at %s; use --overwrite to replace it or --update to merge defaults", path)
	case exists && mode == generateUpdate:
		merged, changed := config.UpdateTOML(string(existing))
		if !changed {
			_, _ = fmt.Fprintf(out, "Config already up to date: %s\n", path)
			return nil
		}
		content = merged
	default:
		content = config.RenderDefaultTOML()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	backup := ""
	if exists {
		if backup, err = writeBackup(path, existing, time.Now()); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Wrote %s\n", path)
	if backup != "" {
		_, _ = fmt.Fprintf(out, "Backup: %s\n", backup)
	}
	return nil
}

// writeBackup stores data next to path as path.bak, or with a timestamp
// suffix when that name is taken.
func writeBackup(path string, data []byte, now time.Time) (string, error) {
	backup := path + ".bak"
	if _, err := os.Stat(backup); err == nil {
		backup = path + ".bak-" + now.Format("20060102-150405")
	}
	return backup, os.WriteFile(backup, data, 0o600)
}
