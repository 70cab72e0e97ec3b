// Package links resolves sets of note ids (references, backlinks, branches)
// into titled, sorted entries on first demand.
package links

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

// Fetcher loads the current revision of a note.
type Fetcher interface {
	GetNote(ctx context.Context, id string) (api.Note, error)
}

// Link is one resolved entry. Err is set when the lookup failed; the rest
// of the batch is unaffected.
type Link struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Tags       []string `json:"tags" yaml:"tags"`
	Transitive bool     `json:"transitive,omitempty" yaml:"transitive,omitempty"`
	Err        error    `json:"-" yaml:"-"`
}

// Lazy defers resolution until Resolve is first called.
type Lazy struct {
	fetch       Fetcher
	ids         []string
	transitive  bool
	concurrency int
	lang        language.Tag
	log         zerolog.Logger

	mu       sync.Mutex
	done     bool
	resolved []Link
}

type Option func(*Lazy)

// WithTransitive borrows the title of the nearest titled prev note for
// untitled entries.
func WithTransitive() Option { return func(l *Lazy) { l.transitive = true } }

// WithConcurrency bounds the number of in-flight lookups.
func WithConcurrency(n int) Option {
	return func(l *Lazy) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLocale sets the collation used for sorting titles.
func WithLocale(tag language.Tag) Option { return func(l *Lazy) { l.lang = tag } }

func WithLogger(log zerolog.Logger) Option { return func(l *Lazy) { l.log = log } }

// New prepares a lazy resolution of ids. Nothing is fetched here.
func New(f Fetcher, ids []string, opts ...Option) *Lazy {
	l := &Lazy{
		fetch:       f,
		ids:         append([]string(nil), ids...),
		concurrency: 8,
		lang:        language.English,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Placeholder returns the raw ids for display before resolution.
func (l *Lazy) Placeholder() []string { return append([]string(nil), l.ids...) }

// Resolved reports whether Resolve has completed.
func (l *Lazy) Resolved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Resolve fetches every id concurrently and returns the entries sorted by
// title. The result is memoised; only context cancellation is an error.
func (l *Lazy) Resolve(ctx context.Context) ([]Link, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.resolved, nil
	}

	out := make([]Link, len(l.ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, id := range l.ids {
		g.Go(func() error {
			out[i] = l.lookup(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	col := collate.New(l.lang)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Title, out[j].Title); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	l.resolved = out
	l.done = true
	return out, nil
}

func (l *Lazy) lookup(ctx context.Context, id string) Link {
	n, err := l.fetch.GetNote(ctx, id)
	if err != nil {
		l.log.Debug().Str("id", id).Err(err).Msg("link lookup failed")
		return Link{ID: id, Err: err}
	}
	link := Link{ID: n.ID, Title: n.Title, Tags: n.Metadata.Tags}
	if !l.transitive || n.Title != "" {
		return link
	}
	seen := map[string]bool{n.ID: true}
	for cur := n; cur.Prev != nil && !seen[*cur.Prev]; {
		seen[*cur.Prev] = true
		prev, err := l.fetch.GetNote(ctx, *cur.Prev)
		if err != nil {
			l.log.Debug().Str("id", *cur.Prev).Err(err).Msg("transitive title lookup failed")
			break
		}
		if prev.Title != "" {
			link.Title = prev.Title
			link.Transitive = true
			break
		}
		cur = prev
	}
	return link
}
