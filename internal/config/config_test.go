package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigValidityValid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "/tmp/notegraf")

	require.NoError(t, CheckConfigValidity(v))
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "")
	v.Set("api.url", "not a url")
	v.Set("api.origin", "ftp://example.com")
	v.Set("api.timeout", "soon")
	v.Set("autosave.interval", "-1s")
	v.Set("links.concurrency", 0)
	v.Set("output.default", "xml")
	v.Set("log.format", "logfmt")
	v.Set("locale", "!!")

	err := CheckConfigValidity(v)
	require.Error(t, err)

	msg := err.Error()
	expected := []string{
		"data_dir is required",
		"api.url has invalid url",
		"api.origin has invalid url",
		"api.timeout must be a positive duration",
		"autosave.interval must be a positive duration",
		"links.concurrency must be greater than 0",
		"output.default must be one of",
		"log.format must be console or json",
		"locale is not a valid language tag",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	cfgPath := filepath.Join(dir, "config.toml")
	content := `[api]
url = "http://file.example:9000"
[autosave]
interval = "2s"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	t.Setenv("NOTEGRAF_AUTOSAVE_INTERVAL", "750ms")

	v := viper.New()
	v.SetConfigFile(cfgPath)
	require.NoError(t, Load(context.Background(), v))

	assert.Equal(t, "http://file.example:9000", v.GetString("api.url"))
	assert.Equal(t, "http://file.example:9000", Origin(v))
	assert.Equal(t, 750*time.Millisecond, Duration(v, "autosave.interval", time.Second))
	assert.Equal(t, "sqlite://"+filepath.Join(dir, "data", "notegraf", "autosave.db"), v.GetString("store_url"))
	assert.Equal(t, 8, v.GetInt("links.concurrency"))
}

func TestDurationFallback(t *testing.T) {
	v := viper.New()
	v.Set("x", "nope")
	assert.Equal(t, 3*time.Second, Duration(v, "x", 3*time.Second))
	assert.Equal(t, 3*time.Second, Duration(v, "missing", 3*time.Second))
}

func TestEffectiveMasksTokenAndDerivesOrigin(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "/tmp/notegraf")
	v.Set("api.url", "https://notes.example/")
	v.Set("api.token", "t0ken")

	got := map[string]string{}
	for _, s := range Effective(v) {
		got[s.Key] = s.Value
	}
	assert.Len(t, got, len(GetConfigOptions()))
	assert.Equal(t, "********", got["api.token"])
	assert.Equal(t, "https://notes.example", got["api.origin"])
	assert.Equal(t, "sqlite://"+filepath.Join("/tmp/notegraf", "autosave.db"), got["store_url"])
	assert.Equal(t, "8", got["links.concurrency"])
}
