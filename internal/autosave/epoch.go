package autosave

import "sync/atomic"

// Epoch counts successful submissions. Binders compare against the value they
// saw at bind time to avoid writing a draft that has already been submitted.
type Epoch struct{ n atomic.Uint64 }

// Current returns the number of submissions seen so far.
func (e *Epoch) Current() uint64 { return e.n.Load() }

// Advance records a successful submission.
func (e *Epoch) Advance() uint64 { return e.n.Add(1) }
