package wire

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/mithrel/notegraf-cli/internal/autosave"
	"github.com/mithrel/notegraf-cli/internal/client"
	"github.com/mithrel/notegraf-cli/internal/config"
	"github.com/mithrel/notegraf-cli/internal/kv"
	"github.com/mithrel/notegraf-cli/internal/logging"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg    *viper.Viper
	Log    zerolog.Logger
	Client *client.Client
	Epoch  *autosave.Epoch

	storeOnce sync.Once
	store     kv.Store
	closer    io.Closer
	storeErr  error
	closeOnce sync.Once
	closeErr  error
}

// BuildApp validates the loaded config and wires dependencies. logOut
// receives log lines (stderr in the CLI).
func BuildApp(ctx context.Context, v *viper.Viper, logOut io.Writer) (*App, error) {
	if err := config.CheckConfigValidity(v); err != nil {
		return nil, err
	}
	logger := logging.New(logOut, v.GetString("log.level"), v.GetString("log.format"))
	c, err := client.New(client.Options{
		BaseURL: v.GetString("api.url"),
		Token:   v.GetString("api.token"),
		Timeout: config.Duration(v, "api.timeout", 0),
		Logger:  logger.With().Str("component", "client").Logger(),
	})
	if err != nil {
		return nil, err
	}
	return &App{
		Cfg:    v,
		Log:    logger,
		Client: c,
		Epoch:  &autosave.Epoch{},
	}, nil
}

// Store opens the autosave store on first use. Commands that never touch
// drafts do not create the data directory.
func (a *App) Store(ctx context.Context) (kv.Store, error) {
	a.storeOnce.Do(func() {
		url := a.Cfg.GetString("store_url")
		a.store, a.closer, a.storeErr = kv.Open(ctx, url)
		if a.storeErr != nil {
			a.storeErr = fmt.Errorf("open autosave store: %w", a.storeErr)
			return
		}
		a.Log.Debug().Str("url", url).Msg("autosave store opened")
	})
	return a.store, a.storeErr
}

// Locale is the collation language for sorted titles.
func (a *App) Locale() language.Tag {
	tag, err := language.Parse(a.Cfg.GetString("locale"))
	if err != nil {
		return language.English
	}
	return tag
}

// Close releases the store if it was opened. Later calls return the first
// result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.closer != nil {
			a.closeErr = a.closer.Close()
		}
	})
	return a.closeErr
}
