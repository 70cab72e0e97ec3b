package api

import (
	"encoding/json"
	"time"
)

// NoteMetadata is the metadata block attached to every note revision.
type NoteMetadata struct {
	SchemaVersion  int             `json:"schema_version" yaml:"schema_version"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
	ModifiedAt     time.Time       `json:"modified_at" yaml:"modified_at"`
	Tags           []string        `json:"tags" yaml:"tags"`
	CustomMetadata json.RawMessage `json:"custom_metadata,omitempty" yaml:"-"`
}

// Note is one revision of a note as served by the notes API.
// Prev/Next form the sequence; Parent/Branches form the branch tree.
type Note struct {
	ID         string       `json:"id" yaml:"id"`
	Revision   string       `json:"revision" yaml:"revision"`
	Title      string       `json:"title" yaml:"title"`
	NoteInner  string       `json:"note_inner" yaml:"note_inner"`
	Parent     *string      `json:"parent" yaml:"parent"`
	Branches   []string     `json:"branches" yaml:"branches"`
	Prev       *string      `json:"prev" yaml:"prev"`
	Next       *string      `json:"next" yaml:"next"`
	References []string     `json:"references" yaml:"references"`
	Referents  []string     `json:"referents" yaml:"referents"`
	Metadata   NoteMetadata `json:"metadata" yaml:"metadata"`
}

// PrevID returns the id of the previous note in the sequence, or "".
func (n Note) PrevID() string { return deref(n.Prev) }

// NextID returns the id of the next note in the sequence, or "".
func (n Note) NextID() string { return deref(n.Next) }

// ParentID returns the id this note was branched from, or "".
func (n Note) ParentID() string { return deref(n.Parent) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StrPtr is a convenience for building notes with optional links.
func StrPtr(s string) *string { return &s }

// FormValues is the edit-form snapshot persisted by autosave and
// posted (after normalisation) as a Submission.
type FormValues struct {
	Title                  string `json:"title"`
	NoteInner              string `json:"note_inner"`
	MetadataTags           string `json:"metadata_tags"`
	MetadataCustomMetadata string `json:"metadata_custom_metadata"`
}

// Submission is the JSON body accepted by the note create/update/branch/append endpoints.
type Submission struct {
	Title                  string `json:"title"`
	NoteInner              string `json:"note_inner"`
	MetadataTags           string `json:"metadata_tags"`
	MetadataCustomMetadata string `json:"metadata_custom_metadata"`
}
