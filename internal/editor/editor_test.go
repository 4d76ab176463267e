package editor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

func section(t *testing.T, pt api.ProjectType, id string) models.Section {
	t.Helper()
	tpl, err := models.LoadTemplate(pt)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	sec, ok := tpl.Section(id)
	if !ok {
		t.Fatalf("no section %s", id)
	}
	return sec
}

func TestParseDraft(t *testing.T) {
	sec := section(t, "", "about")
	input := `# comment line
stray header text
@@ description
A tool.

# Heading inside the value

@@ key_features
- fast
- small
`
	snap, err := Parse(sec, input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := snap.Get("description"); got != "A tool.\n\n# Heading inside the value" {
		t.Fatalf("description=%q", got)
	}
	if got := snap.Get("key_features"); got != "- fast\n- small" {
		t.Fatalf("key_features=%q", got)
	}
	if got := snap.Get("motivation"); got != "" {
		t.Fatalf("motivation=%q", got)
	}
}

func TestComposeParseRoundTrip(t *testing.T) {
	sec := section(t, api.ProjectMobile, "platforms")
	v := form.New(sec)
	v.Toggle("platform_list", "iOS")
	v.Toggle("platform_list", "Android")
	v.Set("min_versions", "iOS 13+\n@@ not a field")

	content := Compose(sec, v)
	if !strings.Contains(content, "@@ platform_list\nAndroid\niOS\n") {
		t.Fatalf("checkbox block missing: %q", content)
	}
	if !strings.Contains(content, `\@@ not a field`) {
		t.Fatalf("marker in value not escaped: %q", content)
	}
	snap, err := Parse(sec, content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !snap.Equal(v.Snapshot()) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", snap, v.Snapshot())
	}
}

func TestComposeSkipsFileFields(t *testing.T) {
	sec := section(t, "", "structure")
	content := Compose(sec, form.New(sec))
	if strings.Contains(content, "@@ upload_structure") {
		t.Fatalf("file field should not be editable: %q", content)
	}
	if !strings.Contains(content, "@@ manual_structure") {
		t.Fatalf("manual_structure missing: %q", content)
	}
}

func TestParseReportsAllProblems(t *testing.T) {
	sec := section(t, "", "api")
	_, err := Parse(sec, "@@ has_api\nMaybe\n@@ bogus\nx\n@@ has_api\nSim\n")
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{`unknown option "Maybe"`, `unknown field "bogus"`, `"has_api" appears twice`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestTagsAreNormalized(t *testing.T) {
	sec := section(t, "", "technology")
	snap, err := Parse(sec, "@@ technologies\nGo,  Python , Go\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := snap.Get("technologies"); got != "Go,Python" {
		t.Fatalf("technologies=%q", got)
	}
}

func TestPathForSection(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	path, err := PathForSection("project info")
	if err != nil {
		t.Fatalf("PathForSection error: %v", err)
	}
	if path != filepath.Join(dir, "docgen", "project-info.docgen.md") {
		t.Fatalf("PathForSection=%q", path)
	}
}
