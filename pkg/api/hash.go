package api

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash returns a deterministic BLAKE3 hash of the form snapshot.
// Fields are NUL-delimited so that moving text between fields changes the digest.
func (f FormValues) Hash() string {
	h := blake3.New()

	h.Write([]byte(f.Title))
	h.Write([]byte{0})

	h.Write([]byte(f.NoteInner))
	h.Write([]byte{0})

	h.Write([]byte(f.MetadataTags))
	h.Write([]byte{0})

	h.Write([]byte(f.MetadataCustomMetadata))

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
