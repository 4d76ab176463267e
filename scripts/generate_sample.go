package main

import (
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/mithrel/docgen/internal/editor"
	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

var technologies = []string{"Go", "Python", "React", "PostgreSQL", "Docker", "Redis", "TypeScript", "Flask"}

// main writes one draft per section, filled with sample values, for trying
// `docgen save` and `docgen watch` against a local service.
func main() {
	projectType := flag.String("type", "", "project type template (empty for the base template)")
	dir := flag.String("dir", "samples", "output directory")
	flag.Parse()

	tpl, err := models.LoadTemplate(api.ProjectType(*projectType))
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		panic(err)
	}

	// Deterministic seed for reproducible output
	mr := mrand.New(mrand.NewSource(42))

	for _, sec := range tpl.Sections {
		v := form.New(sec)
		for _, f := range sec.Fields {
			if !v.Visible(f) || (f.Kind.HasOptions() && len(f.Options) == 0) {
				continue
			}
			switch f.Kind {
			case models.KindFile:
			case models.KindTags:
				v.Set(f.ID, strings.Join(sampleTags(mr, technologies, 1+mr.Intn(4)), ", "))
			case models.KindCheckbox:
				for _, opt := range sampleTags(mr, f.Options, 1+mr.Intn(len(f.Options))) {
					v.Toggle(f.ID, opt)
				}
			case models.KindRadio, models.KindSelect:
				v.Set(f.ID, f.Options[mr.Intn(len(f.Options))])
			case models.KindTextarea:
				v.Set(f.ID, fmt.Sprintf("Sample %s for the %s section.\nSecond line.", strings.ToLower(f.Label), sec.Title))
			default:
				v.Set(f.ID, fmt.Sprintf("Sample %s", strings.ToLower(f.Label)))
			}
		}
		path := filepath.Join(*dir, sec.ID+".docgen.md")
		if err := os.WriteFile(path, []byte(editor.Compose(sec, v)), 0o644); err != nil {
			panic(err)
		}
		fmt.Println(path)
	}
}

func sampleTags(r *mrand.Rand, pool []string, k int) []string {
	if k >= len(pool) {
		k = len(pool)
	}
	idx := r.Perm(len(pool))[:k]
	out := make([]string, k)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}
