package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
// This centralizes default values and descriptions in one place.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < .env < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// If SetConfigFile was provided upstream it takes precedence;
	// these paths are harmless fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "notegraf"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "notegraf"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// A missing config file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	// Environment variables: NOTEGRAF_API_URL, NOTEGRAF_LOG_LEVEL, ...
	v.SetEnvPrefix("notegraf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	if strings.TrimSpace(v.GetString("store_url")) == "" {
		v.Set("store_url", "sqlite://"+ResolveStorePath(v))
	}
	return nil
}

// Origin is the web origin whose note links are rewritten on submit:
// api.origin when set, otherwise api.url.
func Origin(v *viper.Viper) string {
	if o := strings.TrimSpace(v.GetString("api.origin")); o != "" {
		return strings.TrimRight(o, "/")
	}
	return strings.TrimRight(v.GetString("api.url"), "/")
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/notegraf or ~/.local/share/notegraf
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "notegraf")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "notegraf")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "notegraf", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; autosave store is data_dir/autosave.db"},
		{Key: "store_url", Default: "", Comment: "Autosave store: sqlite://path or mem:// (empty uses data_dir)"},
		{Key: "locale", Default: "en", Comment: "BCP 47 language tag used to sort titles"},

		{Key: "api.url", Default: "http://localhost:8000", Comment: "Base URL of the notegraf server"},
		{Key: "api.token", Default: "", Comment: "Optional bearer token sent with every request"},
		{Key: "api.timeout", Default: "20s", Comment: "Per-request timeout"},
		{Key: "api.origin", Default: "", Comment: "Web origin whose /note/ links are rewritten to notegraf:/note/ (empty uses api.url)"},

		{Key: "autosave.interval", Default: "5s", Comment: "Debounce interval before an edit buffer is saved locally"},
		{Key: "links.concurrency", Default: 8, Comment: "Parallel lookups when resolving backlinks and branches"},

		{Key: "log.level", Default: "warn", Comment: "trace|debug|info|warn|error|off"},
		{Key: "log.format", Default: "console", Comment: "console|json"},

		{Key: "output.default", Default: "plain", Comment: "Default output mode: plain|pretty|json|ndjson|yaml"},
		{Key: "editor.keep_tmp", Default: false, Comment: "Keep the temporary editor buffer after submitting"},
	}
}

// ResolveStorePath uses data_dir and defaults to return the sqlite autosave file path.
func ResolveStorePath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "autosave.db")
}

// Duration reads a duration key, falling back to def when unset or malformed.
func Duration(v *viper.Viper, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Setting is one resolved configuration value.
type Setting struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Effective lists every known option with the value in force after files,
// env and flags. Derived keys are filled in and the API token is masked.
func Effective(v *viper.Viper) []Setting {
	opts := GetConfigOptions()
	out := make([]Setting, 0, len(opts))
	for _, o := range opts {
		val := fmt.Sprint(v.Get(o.Key))
		if v.Get(o.Key) == nil {
			val = ""
		}
		switch o.Key {
		case "api.token":
			if val != "" {
				val = "********"
			}
		case "api.origin":
			val = Origin(v)
		case "store_url":
			if val == "" {
				val = "sqlite://" + ResolveStorePath(v)
			}
		}
		out = append(out, Setting{Key: o.Key, Value: val})
	}
	return out
}
