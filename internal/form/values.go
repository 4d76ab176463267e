package form

import (
	"strings"
	"sync"

	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

// Values is the editable state of one section form. It is safe for use by
// the UI goroutine and the synchronizer at the same time.
type Values struct {
	mu      sync.RWMutex
	section models.Section
	single  map[string]string
	multi   map[string]map[string]bool
}

// New returns empty values for a section.
func New(sec models.Section) *Values {
	return &Values{
		section: sec,
		single:  make(map[string]string),
		multi:   make(map[string]map[string]bool),
	}
}

// FromSnapshot seeds values from a previously captured snapshot.
func FromSnapshot(sec models.Section, snap Snapshot) *Values {
	v := New(sec)
	for _, f := range snap.Fields {
		name := strings.TrimSuffix(f.Name, "[]")
		spec, ok := sec.Field(name)
		if !ok {
			continue
		}
		if spec.Kind == models.KindCheckbox {
			if v.multi[name] == nil {
				v.multi[name] = make(map[string]bool)
			}
			v.multi[name][f.Value] = true
			continue
		}
		v.single[name] = f.Value
	}
	return v
}

// Section returns the template section these values belong to.
func (v *Values) Section() models.Section { return v.section }

// Get returns the value of a single-valued field.
func (v *Values) Get(id string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.single[id]
}

// Checked reports whether a checkbox option is selected.
func (v *Values) Checked(id, option string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.multi[id][option]
}

// Set assigns a single-valued field and reports whether it changed.
// Tags are normalized to their comma-joined form.
func (v *Values) Set(id, value string) bool {
	spec, ok := v.section.Field(id)
	if !ok {
		return false
	}
	if spec.Kind == models.KindTags {
		value = JoinTags(SplitTags(value))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.single[id] == value {
		return false
	}
	v.single[id] = value
	return true
}

// Toggle flips a checkbox option. It always changes state for a known option.
func (v *Values) Toggle(id, option string) bool {
	spec, ok := v.section.Field(id)
	if !ok || spec.Kind != models.KindCheckbox || !hasOption(spec, option) {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.multi[id] == nil {
		v.multi[id] = make(map[string]bool)
	}
	v.multi[id][option] = !v.multi[id][option]
	return true
}

// Visible evaluates a field's condition against the current values.
// Fields without a condition are always visible.
func (v *Values) Visible(f models.FieldSpec) bool {
	if f.Conditional == nil {
		return true
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	ctrl, ok := v.section.Field(f.Conditional.Field)
	if !ok {
		return true
	}
	if ctrl.Kind == models.KindCheckbox {
		return v.multi[ctrl.ID][f.Conditional.Value]
	}
	return v.single[ctrl.ID] == f.Conditional.Value
}

// Missing lists required visible fields that have no value.
func (v *Values) Missing() []string {
	var out []string
	for _, f := range v.section.Fields {
		if !f.Required || !v.Visible(f) || f.Kind == models.KindFile {
			continue
		}
		if f.Kind == models.KindCheckbox {
			if len(v.checkedInOrder(f)) == 0 {
				out = append(out, f.ID)
			}
			continue
		}
		if strings.TrimSpace(v.Get(f.ID)) == "" {
			out = append(out, f.ID)
		}
	}
	return out
}

// Snapshot captures the form the way a browser serializes it: fields in
// template order, file inputs omitted, unchecked radios omitted, and each
// checked checkbox option posted as "name[]". Hidden conditional fields are
// still posted.
func (v *Values) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	snap := Snapshot{Section: v.section.ID}
	for _, f := range v.section.Fields {
		switch f.Kind {
		case models.KindFile:
			continue
		case models.KindCheckbox:
			for _, opt := range f.Options {
				if v.multi[f.ID][opt] {
					snap.Fields = append(snap.Fields, api.Field{Name: f.ID + "[]", Value: opt})
				}
			}
		case models.KindRadio, models.KindSelect:
			if val := v.single[f.ID]; val != "" {
				snap.Fields = append(snap.Fields, api.Field{Name: f.ID, Value: val})
			}
		default:
			snap.Fields = append(snap.Fields, api.Field{Name: f.ID, Value: v.single[f.ID]})
		}
	}
	return snap
}

func (v *Values) checkedInOrder(f models.FieldSpec) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []string
	for _, opt := range f.Options {
		if v.multi[f.ID][opt] {
			out = append(out, opt)
		}
	}
	return out
}

func hasOption(f models.FieldSpec, option string) bool {
	for _, o := range f.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Holder keeps the forms of a session by section id and serves snapshots.
type Holder struct {
	mu    sync.RWMutex
	forms map[string]*Values
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{forms: make(map[string]*Values)}
}

// Put registers (or replaces) the values for their section.
func (h *Holder) Put(v *Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forms[v.section.ID] = v
}

// Get returns the values for a section.
func (h *Holder) Get(section string) (*Values, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.forms[section]
	return v, ok
}

// Snapshot returns the current snapshot of a section or ErrNoForm.
func (h *Holder) Snapshot(section string) (Snapshot, error) {
	v, ok := h.Get(section)
	if !ok {
		return Snapshot{}, ErrNoForm
	}
	return v.Snapshot(), nil
}

// SetField assigns a field of a registered section.
func (h *Holder) SetField(section, field, value string) bool {
	v, ok := h.Get(section)
	if !ok {
		return false
	}
	return v.Set(field, value)
}

// Load replaces every value with the snapshot's and reports whether the
// resulting snapshot differs from the previous one.
func (v *Values) Load(snap Snapshot) bool {
	before := v.Snapshot()
	next := FromSnapshot(v.section, snap)
	for id, val := range next.single {
		if spec, ok := v.section.Field(id); ok && spec.Kind == models.KindTags {
			next.single[id] = JoinTags(SplitTags(val))
		}
	}
	v.mu.Lock()
	v.single = next.single
	v.multi = next.multi
	v.mu.Unlock()
	return !before.Equal(v.Snapshot())
}
