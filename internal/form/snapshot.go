package form

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/mithrel/docgen/pkg/api"
)

// ErrNoForm is returned by a Source that has nothing to offer for a section.
// Automatic refreshes treat it as a silent no-op.
var ErrNoForm = errors.New("form: no form for section")

// SectionField is the form field carrying the section id on the wire.
const SectionField = "section"

// Snapshot is the serialized state of one section form, in field order.
// Multi-valued fields repeat under "name[]".
type Snapshot struct {
	Section string
	Fields  []api.Field
}

// Get returns the first value for name.
func (s Snapshot) Get(name string) string {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Values returns every value posted under name, including the "name[]" form.
func (s Snapshot) Values(name string) []string {
	var out []string
	for _, f := range s.Fields {
		if f.Name == name || f.Name == name+"[]" {
			out = append(out, f.Value)
		}
	}
	return out
}

// Fingerprint identifies the snapshot content.
func (s Snapshot) Fingerprint() string {
	return api.Fingerprint(s.Section, s.Fields)
}

// Equal compares section and ordered fields.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Section != o.Section || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// IsZero reports an unset snapshot.
func (s Snapshot) IsZero() bool {
	return s.Section == "" && len(s.Fields) == 0
}

// Clone returns a copy that shares no backing array.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Section: s.Section, Fields: append([]api.Field(nil), s.Fields...)}
}

// WriteMultipart writes every field followed by the section id.
func (s Snapshot) WriteMultipart(w *multipart.Writer) error {
	for _, f := range s.Fields {
		if f.Name == SectionField {
			continue
		}
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	return w.WriteField(SectionField, s.Section)
}

// Draft converts the snapshot into its journal record.
func (s Snapshot) Draft() api.Draft {
	return api.Draft{Section: s.Section, Fields: append([]api.Field(nil), s.Fields...), Fingerprint: s.Fingerprint()}
}

// FromDraft rebuilds a snapshot from a journal record.
func FromDraft(d api.Draft) Snapshot {
	return Snapshot{Section: d.Section, Fields: append([]api.Field(nil), d.Fields...)}
}

// SplitTags parses a comma-separated tag list, trimming blanks and duplicates.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
