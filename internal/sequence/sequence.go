// Package sequence reconstructs the prev/next chain a note belongs to.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

// ErrCycle means the prev/next links loop back on themselves.
var ErrCycle = errors.New("note sequence contains a cycle")

// Fetcher loads the current revision of a note.
type Fetcher interface {
	GetNote(ctx context.Context, id string) (api.Note, error)
}

// Resolve returns the sequence around anchorID. Without recursive it is just
// the anchor. With recursive it walks prev to the head, then next to the tail,
// one fetch at a time. Any failure aborts the walk; partial chains are never
// returned.
func Resolve(ctx context.Context, f Fetcher, anchorID string, recursive bool) ([]api.Note, error) {
	anchor, err := f.GetNote(ctx, anchorID)
	if err != nil {
		return nil, err
	}
	if !recursive {
		return []api.Note{anchor}, nil
	}

	seen := map[string]bool{anchor.ID: true}
	visit := func(id string) (api.Note, error) {
		if seen[id] {
			return api.Note{}, fmt.Errorf("%w: %s seen twice", ErrCycle, id)
		}
		if err := ctx.Err(); err != nil {
			return api.Note{}, err
		}
		n, err := f.GetNote(ctx, id)
		if err != nil {
			return api.Note{}, err
		}
		seen[id] = true
		return n, nil
	}

	var before []api.Note
	for cur := anchor; cur.Prev != nil; {
		n, err := visit(*cur.Prev)
		if err != nil {
			return nil, err
		}
		before = append(before, n)
		cur = n
	}
	out := make([]api.Note, 0, len(before)+1)
	for i := len(before) - 1; i >= 0; i-- {
		out = append(out, before[i])
	}
	out = append(out, anchor)

	for cur := anchor; cur.Next != nil; {
		n, err := visit(*cur.Next)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		cur = n
	}
	return out, nil
}
