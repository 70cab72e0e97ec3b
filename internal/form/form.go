// Package form builds, validates and normalises note edit forms.
package form

import (
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mithrel/notegraf-cli/internal/session"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

// InternalLinkPrefix is how note links are stored server side.
const InternalLinkPrefix = "notegraf:/note/"

// Defaults returns the initial values for a target. Only edits start from
// the existing note; new, branch and append start empty with "{}" metadata.
func Defaults(t session.Target, n *api.Note) api.FormValues {
	if t.Kind != session.KindEdit || n == nil {
		return api.FormValues{MetadataCustomMetadata: "{}"}
	}
	custom := "{}"
	if len(n.Metadata.CustomMetadata) > 0 && string(n.Metadata.CustomMetadata) != "null" {
		custom = string(n.Metadata.CustomMetadata)
	}
	return api.FormValues{
		Title:                  n.Title,
		NoteInner:              n.NoteInner,
		MetadataTags:           strings.Join(n.Metadata.Tags, ", "),
		MetadataCustomMetadata: custom,
	}
}

var errInvalidJSON = errors.New("must be valid JSON")

func jsonRule(value any) error {
	s, _ := value.(string)
	if !json.Valid([]byte(s)) {
		return errInvalidJSON
	}
	return nil
}

// Validate checks a form before submission. The returned error is a
// validation.Errors keyed by field name.
func Validate(v api.FormValues) error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.NoteInner, validation.Required.Error("note body is required")),
		validation.Field(&v.MetadataCustomMetadata, validation.By(jsonRule)),
	)
}

// Submission normalises form values into the POST body. Links to the API
// origin's note pages become internal note links.
func Submission(v api.FormValues, origin string) api.Submission {
	body := v.NoteInner
	if o := strings.TrimRight(origin, "/"); o != "" {
		body = strings.ReplaceAll(body, o+"/note/", InternalLinkPrefix)
	}
	custom := strings.TrimSpace(v.MetadataCustomMetadata)
	if custom == "" {
		custom = "{}"
	}
	return api.Submission{
		Title:                  strings.TrimSpace(v.Title),
		NoteInner:              body,
		MetadataTags:           strings.Join(SplitTags(v.MetadataTags), ","),
		MetadataCustomMetadata: custom,
	}
}

// SplitTags parses a comma separated tag list, dropping blanks and duplicates.
func SplitTags(s string) []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		t := strings.TrimSpace(p)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
