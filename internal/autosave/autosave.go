// Package autosave persists in-progress form values to a local key-value
// store on a debounce timer and restores them on the next bind.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mithrel/notegraf-cli/internal/kv"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

const DefaultInterval = 5 * time.Second

// Options configures Bind.
type Options struct {
	Store    kv.Store
	Key      string
	Defaults api.FormValues
	Interval time.Duration
	Epoch    *Epoch
	// Apply receives the restored (or default) values once, during Bind.
	Apply  func(api.FormValues)
	Logger zerolog.Logger
}

// Binder ties one form instance to one storage key.
type Binder struct {
	store    kv.Store
	key      string
	interval time.Duration
	epoch    *Epoch
	boundAt  uint64
	log      zerolog.Logger
	restored bool

	// writeMu serialises store writes; mu guards the fields below and is
	// never held across I/O.
	writeMu  sync.Mutex
	mu       sync.Mutex
	latest   api.FormValues
	observed bool
	lastHash string
	timer    *time.Timer
	closed   bool
}

// Bind loads the stored snapshot for opts.Key, falling back to opts.Defaults
// when it is missing or unreadable, and hands the result to opts.Apply.
func Bind(ctx context.Context, opts Options) (*Binder, error) {
	if opts.Store == nil {
		return nil, errors.New("autosave: store is required")
	}
	if opts.Key == "" {
		return nil, errors.New("autosave: key is required")
	}
	if opts.Epoch == nil {
		opts.Epoch = &Epoch{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	b := &Binder{
		store:    opts.Store,
		key:      opts.Key,
		interval: opts.Interval,
		epoch:    opts.Epoch,
		boundAt:  opts.Epoch.Current(),
		log:      opts.Logger.With().Str("key", opts.Key).Logger(),
	}

	values := opts.Defaults
	if stored, ok, err := b.load(ctx); err != nil {
		return nil, err
	} else if ok {
		values = stored
		b.restored = true
		b.lastHash = stored.Hash()
	}
	b.latest = values
	if opts.Apply != nil {
		opts.Apply(values)
	}
	return b, nil
}

func (b *Binder) load(ctx context.Context) (api.FormValues, bool, error) {
	raw, err := b.store.Get(ctx, b.key)
	if errors.Is(err, kv.ErrNotFound) {
		return api.FormValues{}, false, nil
	}
	if err != nil {
		return api.FormValues{}, false, fmt.Errorf("read autosave %s: %w", b.key, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return api.FormValues{}, false, nil
	}
	var v api.FormValues
	if err := json.Unmarshal(raw, &v); err != nil {
		b.log.Debug().Err(err).Msg("discarding unreadable autosave")
		return api.FormValues{}, false, nil
	}
	return v, true, nil
}

// Restored reports whether Bind found a stored snapshot.
func (b *Binder) Restored() bool { return b.restored }

// Key is the storage key this binder writes to.
func (b *Binder) Key() string { return b.key }

// Latest returns the most recently observed (or restored) values.
func (b *Binder) Latest() api.FormValues {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Observe records new values and restarts the debounce timer.
func (b *Binder) Observe(v api.FormValues) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.latest = v
	b.observed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.interval, func() {
		if err := b.persist(context.Background()); err != nil {
			b.log.Warn().Err(err).Msg("autosave failed")
		}
	})
}

// Flush writes the latest observed values immediately.
func (b *Binder) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()
	return b.persist(ctx)
}

// Close cancels any pending write and waits for one in flight. It does not
// remove the stored snapshot.
func (b *Binder) Close() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// Stale reports whether a submission happened after this binder was bound.
func (b *Binder) Stale() bool { return b.epoch.Current() != b.boundAt }

func (b *Binder) persist(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	if b.closed || !b.observed {
		b.mu.Unlock()
		return nil
	}
	if b.Stale() {
		b.mu.Unlock()
		b.log.Debug().Uint64("bound_at", b.boundAt).Uint64("epoch", b.epoch.Current()).Msg("skipping superseded autosave")
		return nil
	}
	latest, last := b.latest, b.lastHash
	b.mu.Unlock()

	h := latest.Hash()
	if h == last {
		return nil
	}
	raw, err := json.Marshal(latest)
	if err != nil {
		return fmt.Errorf("encode autosave: %w", err)
	}
	if err := b.store.Set(ctx, b.key, raw); err != nil {
		return fmt.Errorf("write autosave %s: %w", b.key, err)
	}

	b.mu.Lock()
	b.lastHash = h
	b.mu.Unlock()
	b.log.Debug().Msg("autosaved")
	return nil
}
