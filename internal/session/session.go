// Package session names and enumerates timestamp-keyed autosave slots.
// Several drafts for the same target may coexist; each lives under
// "<prefix>.<unix-millis>".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mithrel/notegraf-cli/internal/kv"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

// Kind is the editing operation a session belongs to.
type Kind string

const (
	KindNew    Kind = "new"
	KindEdit   Kind = "edit"
	KindBranch Kind = "branch"
	KindAppend Kind = "append"
)

// ParseKind accepts the CLI spelling of a kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNew, KindEdit, KindBranch, KindAppend:
		return k, nil
	default:
		return "", fmt.Errorf("unknown session kind %q (want new, edit, branch or append)", s)
	}
}

// Target is what a form submits to.
type Target struct {
	Kind   Kind
	NoteID string
}

// Validate checks that NoteID is set exactly when the kind needs one.
func (t Target) Validate() error {
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if t.Kind == KindNew && t.NoteID != "" {
		return errors.New("new note sessions take no note id")
	}
	if t.Kind != KindNew && t.NoteID == "" {
		return fmt.Errorf("%s sessions need a note id", t.Kind)
	}
	return nil
}

// Prefix is the storage key prefix shared by every session of this target.
func (t Target) Prefix() string {
	if t.Kind == KindNew {
		return "autosave.note.new"
	}
	return "autosave.note." + t.NoteID + "." + string(t.Kind)
}

// Endpoint is the API path (below /api/v1/) a submission posts to.
func (t Target) Endpoint() string {
	switch t.Kind {
	case KindEdit:
		return "note/" + t.NoteID + "/revision"
	case KindBranch:
		return "note/" + t.NoteID + "/branch"
	case KindAppend:
		return "note/" + t.NoteID + "/next"
	default:
		return "note"
	}
}

// Verb describes the target for prompts and messages.
func (t Target) Verb() string {
	switch t.Kind {
	case KindEdit:
		return "edit note " + t.NoteID
	case KindBranch:
		return "branch from note " + t.NoteID
	case KindAppend:
		return "append after note " + t.NoteID
	default:
		return "new note"
	}
}

// Session is one stored draft.
type Session struct {
	Key       string    `json:"key" yaml:"key"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
	Label     string    `json:"label" yaml:"label"`
	Created   time.Time `json:"created" yaml:"created"`
}

// New returns the key of a fresh session created at now.
func New(prefix string, now time.Time) string {
	return prefix + "." + strconv.FormatInt(now.UnixMilli(), 10)
}

// KeyFor joins a prefix and a timestamp given on the command line.
func KeyFor(prefix, ts string) (string, error) {
	if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
		return "", fmt.Errorf("session timestamp %q: %w", ts, err)
	}
	return prefix + "." + ts, nil
}

// List returns the sessions stored under prefix, ordered by key.
// Keys whose trailing segment is not a millisecond timestamp are skipped.
func List(ctx context.Context, store kv.Store, prefix string) ([]Session, error) {
	keys, err := store.ListKeysWithPrefix(ctx, prefix+".")
	if err != nil {
		return nil, fmt.Errorf("list sessions %s: %w", prefix, err)
	}
	out := make([]Session, 0, len(keys))
	for _, k := range keys {
		tail := k[len(prefix)+1:]
		if strings.Contains(tail, ".") {
			continue
		}
		ms, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Session{Key: k, Timestamp: ms, Label: label(ctx, store, k), Created: time.UnixMilli(ms)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func label(ctx context.Context, store kv.Store, key string) string {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return ""
	}
	var v api.FormValues
	if json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v.Title
}

// Delete removes a stored draft. Missing sessions are not an error.
func Delete(ctx context.Context, store kv.Store, key string) error {
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}
