package config

import (
	"strings"
	"testing"
)

func TestRenderDefaultTOML(t *testing.T) {
	out := RenderDefaultTOML()
	for _, want := range []string{
		"# docgen configuration (TOML)",
		`server_url = "http://127.0.0.1:5000"`,
		"[autosave]\n",
		`debounce = "500ms"`,
		"max_bytes = 52428800",
		`exclude = [".git/**"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered config missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "[preview]") != 1 {
		t.Fatalf("preview table rendered more than once")
	}
}

func TestUpdateTOML(t *testing.T) {
	existing := "theme = \"dark\"\nnamespace = \"work\"\n[preview]\nstyle = \"light\"\n"
	out, changed := UpdateTOML(existing)
	if !changed {
		t.Fatalf("expected change")
	}
	if !strings.Contains(out, "# OUTDATED: option removed from config schema\n# namespace = \"work\"") {
		t.Fatalf("unknown key not commented out:\n%s", out)
	}
	if !strings.Contains(out, "theme = \"dark\"") || !strings.Contains(out, "style = \"light\"") {
		t.Fatalf("existing values lost:\n%s", out)
	}
	if !strings.Contains(out, "# Added by config update") || !strings.Contains(out, "server_url =") {
		t.Fatalf("missing keys not appended:\n%s", out)
	}

	again, changed := UpdateTOML(RenderDefaultTOML())
	if changed {
		t.Fatalf("defaults should be up to date:\n%s", again)
	}
}

func TestSetKey(t *testing.T) {
	doc := "server_url = \"http://x\"\n\n[preview]\nstyle = \"dark\"\n"

	out := SetKey(doc, "theme", "neon")
	if !strings.Contains(out, "theme = \"neon\"\n\n[preview]") {
		t.Fatalf("top-level key not placed before tables:\n%s", out)
	}

	out = SetKey(out, "theme", "retro")
	if strings.Count(out, "theme =") != 1 || !strings.Contains(out, `theme = "retro"`) {
		t.Fatalf("key not replaced:\n%s", out)
	}

	out = SetKey(out, "preview.width", 90)
	if !strings.Contains(out, "[preview]\nwidth = 90\nstyle = \"dark\"") {
		t.Fatalf("table key not inserted:\n%s", out)
	}

	out = SetKey(out, "remote.verbose", true)
	if !strings.HasSuffix(out, "[remote]\nverbose = true") {
		t.Fatalf("new table not appended:\n%s", out)
	}

	if got := SetKey("", "project_type", "backend"); got != "\nproject_type = \"backend\"" && got != "project_type = \"backend\"" {
		t.Fatalf("empty doc = %q", got)
	}
}
