package editor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

// settle coalesces the burst of events an editor produces per save.
const settle = 50 * time.Millisecond

// Watch reports every saved version of the buffer at path to onChange until
// ctx is done. The parent directory is watched so editors that save by
// rename are seen too. The returned wait blocks until the watcher exits.
func Watch(ctx context.Context, path string, log zerolog.Logger, onChange func(api.FormValues)) (wait func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	target := filepath.Clean(path)
	done := make(chan error, 1)

	go func() {
		defer w.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				done <- nil
				return

			case <-fire:
				fire = nil
				data, err := os.ReadFile(target)
				if err != nil {
					log.Debug().Err(err).Str("path", target).Msg("buffer read failed")
					continue
				}
				onChange(ParseEdited(string(data)))

			case ev, ok := <-w.Events:
				if !ok {
					done <- nil
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(settle)
				} else {
					timer.Reset(settle)
				}
				fire = timer.C

			case werr, ok := <-w.Errors:
				if !ok {
					done <- nil
					return
				}
				log.Warn().Err(werr).Msg("buffer watcher error")
			}
		}
	}()
	return func() error { return <-done }, nil
}
