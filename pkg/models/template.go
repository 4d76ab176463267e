package models

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mithrel/docgen/pkg/api"
)

//go:embed templates.yaml
var templatesYAML []byte

// FieldKind is the input widget a field is edited with.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindTags     FieldKind = "tags"
	KindRadio    FieldKind = "radio"
	KindSelect   FieldKind = "select"
	KindCheckbox FieldKind = "checkbox"
	KindFile     FieldKind = "file"
)

// HasOptions reports whether the kind picks from a fixed option list.
func (k FieldKind) HasOptions() bool {
	return k == KindRadio || k == KindSelect || k == KindCheckbox
}

// Condition makes a field visible only while another field holds Value.
type Condition struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// FieldSpec describes one input of a section.
type FieldSpec struct {
	ID          string     `yaml:"id"`
	Label       string     `yaml:"label"`
	Kind        FieldKind  `yaml:"type"`
	Required    bool       `yaml:"required"`
	Placeholder string     `yaml:"placeholder"`
	Accept      string     `yaml:"accept"`
	Options     []string   `yaml:"options"`
	Conditional *Condition `yaml:"conditional"`
}

// Section is one page of the documentation form.
type Section struct {
	ID     string      `yaml:"id"`
	Title  string      `yaml:"title"`
	Fields []FieldSpec `yaml:"fields"`
}

// Field returns the field with the given id.
func (s Section) Field(id string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Template is the ordered list of sections for a project type.
type Template struct {
	ProjectType api.ProjectType
	Sections    []Section
}

// Section returns the section with the given id.
func (t Template) Section(id string) (Section, bool) {
	for _, s := range t.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// SectionIDs lists section ids in form order.
func (t Template) SectionIDs() []string {
	out := make([]string, 0, len(t.Sections))
	for _, s := range t.Sections {
		out = append(out, s.ID)
	}
	return out
}

// Index returns the position of a section, or -1.
func (t Template) Index(id string) int {
	for i, s := range t.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

type catalog struct {
	Base     []Section                     `yaml:"base"`
	Specific map[api.ProjectType][]Section `yaml:"specific"`
}

var (
	catalogOnce sync.Once
	catalogData catalog
	catalogErr  error
)

func loadCatalog() (catalog, error) {
	catalogOnce.Do(func() {
		if err := yaml.Unmarshal(templatesYAML, &catalogData); err != nil {
			catalogErr = fmt.Errorf("parse templates: %w", err)
		}
	})
	return catalogData, catalogErr
}

// LoadTemplate builds the template for a project type. Type specific
// sections replace base sections with the same id in place; the rest are
// appended after the base sections.
func LoadTemplate(pt api.ProjectType) (Template, error) {
	c, err := loadCatalog()
	if err != nil {
		return Template{}, err
	}
	pt = api.ProjectType(strings.TrimSpace(string(pt)))
	if pt != "" && !pt.Valid() {
		return Template{}, fmt.Errorf("unknown project type %q", pt)
	}
	sections := make([]Section, len(c.Base))
	copy(sections, c.Base)
	for _, spec := range c.Specific[pt] {
		replaced := false
		for i := range sections {
			if sections[i].ID == spec.ID {
				sections[i] = spec
				replaced = true
				break
			}
		}
		if !replaced {
			sections = append(sections, spec)
		}
	}
	return Template{ProjectType: pt, Sections: sections}, nil
}
