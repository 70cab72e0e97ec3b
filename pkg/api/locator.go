package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

type LocatorKind string

const (
	LocatorCurrent  LocatorKind = "Current"
	LocatorSpecific LocatorKind = "Specific"
)

// Locator identifies a note, optionally pinned to a revision.
// On the wire it is an externally tagged union:
//
//	{"Current": "<id>"}
//	{"Specific": ["<id>", "<revision>"]}
type Locator struct {
	Kind     LocatorKind
	ID       string
	Revision string
}

var errBadLocator = errors.New("malformed note locator")

// NoteID returns the note id for either variant.
func (l Locator) NoteID() string { return l.ID }

func (l Locator) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LocatorCurrent:
		return json.Marshal(map[string]string{string(LocatorCurrent): l.ID})
	case LocatorSpecific:
		return json.Marshal(map[string][2]string{string(LocatorSpecific): {l.ID, l.Revision}})
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", errBadLocator, l.Kind)
	}
}

func (l *Locator) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", errBadLocator, err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: expected exactly one variant, got %d", errBadLocator, len(raw))
	}
	if v, ok := raw[string(LocatorCurrent)]; ok {
		var id string
		if err := json.Unmarshal(v, &id); err != nil || id == "" {
			return fmt.Errorf("%w: Current needs an id", errBadLocator)
		}
		*l = Locator{Kind: LocatorCurrent, ID: id}
		return nil
	}
	if v, ok := raw[string(LocatorSpecific)]; ok {
		var parts []string
		if err := json.Unmarshal(v, &parts); err != nil || len(parts) == 0 || parts[0] == "" {
			return fmt.Errorf("%w: Specific needs [id, revision]", errBadLocator)
		}
		*l = Locator{Kind: LocatorSpecific, ID: parts[0]}
		if len(parts) > 1 {
			l.Revision = parts[1]
		}
		return nil
	}
	return fmt.Errorf("%w: unknown variant", errBadLocator)
}
