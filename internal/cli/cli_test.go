package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mithrel/docgen/internal/editor"
	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/internal/present/format"
	"github.com/mithrel/docgen/internal/remote/remotetest"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

type env struct {
	srv     *remotetest.Server
	dir     string
	cfgPath string
}

// newEnv isolates config, data and runtime dirs and points the CLI at a
// fake service.
func newEnv(t *testing.T) *env {
	t.Helper()
	srv := remotetest.New(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))
	cfg := filepath.Join(dir, "config.toml")
	content := `server_url = "` + srv.URL + `/"
data_dir = "` + strings.ReplaceAll(filepath.Join(dir, "data"), "\\", "\\\\") + `"
`
	if err := os.WriteFile(cfg, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &env{srv: srv, dir: dir, cfgPath: cfg}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *env) runWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func projectInfoDraft(t *testing.T, name string) string {
	t.Helper()
	tpl, err := models.LoadTemplate("")
	if err != nil {
		t.Fatal(err)
	}
	sec, _ := tpl.Section("project_info")
	v := form.New(sec)
	v.Set("name", name)
	v.Set("short_description", "Keeps docs current")
	return editor.Compose(sec, v)
}

func TestSaveStatusAndDrafts(t *testing.T) {
	e := newEnv(t)
	draft := filepath.Join(e.dir, "info.md")
	if err := os.WriteFile(draft, []byte(projectInfoDraft(t, "Doc Tool")), 0o600); err != nil {
		t.Fatal(err)
	}

	out := e.mustRun(t, "save", "info", draft, "--print")
	if !strings.Contains(out, "# Doc Tool") {
		t.Fatalf("save output missing markdown: %q", out)
	}
	if got := e.srv.Section("project_info").Get("name"); got != "Doc Tool" {
		t.Fatalf("server name = %q", got)
	}

	out = e.mustRun(t, "status", "--output", "json")
	var rows []format.SectionRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if len(rows) == 0 || rows[0].Section != "project_info" || !rows[0].Known || !rows[0].Complete {
		t.Fatalf("unexpected first row: %+v", rows)
	}
	if rows[0].SavedAt.IsZero() {
		t.Fatalf("saved_at not taken from the journal")
	}

	out = e.mustRun(t, "drafts", "list", "--output", "json")
	var drafts []api.Draft
	if err := json.Unmarshal([]byte(out), &drafts); err != nil {
		t.Fatalf("decode drafts: %v\n%s", err, out)
	}
	if len(drafts) != 1 || drafts[0].Section != "project_info" {
		t.Fatalf("drafts = %+v", drafts)
	}

	out = e.mustRun(t, "drafts", "list", "--since", "2000-01-01")
	if !strings.Contains(out, "project_info") {
		t.Fatalf("since filter dropped the draft: %q", out)
	}
	if _, err := e.run(t, "drafts", "show", "roadmap"); err == nil {
		t.Fatalf("expected missing draft error")
	}
}

func TestSaveFromStdinRejectsUnknownSection(t *testing.T) {
	e := newEnv(t)
	if _, err := e.runWithInput(t, projectInfoDraft(t, "X"), "save", "zzzz", "-"); err == nil {
		t.Fatalf("expected unknown section error")
	}
	if _, err := e.runWithInput(t, projectInfoDraft(t, "From Stdin"), "save", "project_info", "-"); err != nil {
		t.Fatalf("save from stdin: %v", err)
	}
	if e.srv.UpdateCount() != 1 {
		t.Fatalf("update count = %d", e.srv.UpdateCount())
	}
}

func TestExportWritesSuggestedFile(t *testing.T) {
	e := newEnv(t)
	draft := filepath.Join(e.dir, "info.md")
	if err := os.WriteFile(draft, []byte(projectInfoDraft(t, "My App")), 0o600); err != nil {
		t.Fatal(err)
	}
	e.mustRun(t, "save", "project_info", draft)

	outDir := filepath.Join(e.dir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	out := e.mustRun(t, "export", "-o", outDir)
	if !strings.Contains(out, "written successfully") {
		t.Fatalf("export output: %q", out)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "My_App.md"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "# My App") {
		t.Fatalf("export content: %q", data)
	}

	out = e.mustRun(t, "export", "--output", "json")
	var exp api.Export
	if err := json.Unmarshal([]byte(out), &exp); err != nil || exp.Filename != "My_App.md" {
		t.Fatalf("export json: %v %+v", err, exp)
	}
	if _, err := e.run(t, "export", "--output", "ndjson"); err == nil {
		t.Fatalf("expected invalid output error")
	}

	e.mustRun(t, "download", "-d", outDir)
	if _, err := os.Stat(filepath.Join(outDir, "README.md")); err != nil {
		t.Fatalf("download file: %v", err)
	}
}

func TestThemeAndSetupPersist(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "theme", "cyber")
	if !strings.Contains(out, "Theme changed to cyberpunk") {
		t.Fatalf("theme output: %q", out)
	}
	if e.srv.Theme() != "cyberpunk" {
		t.Fatalf("server theme = %q", e.srv.Theme())
	}

	e.mustRun(t, "setup", "backend", "--example")
	if e.srv.ProjectType() != api.ProjectBackend {
		t.Fatalf("project type = %q", e.srv.ProjectType())
	}
	data, err := os.ReadFile(e.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`theme = "cyberpunk"`, `project_type = "backend"`, "server_url"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("config missing %q:\n%s", want, data)
		}
	}
	if out := e.mustRun(t, "theme"); strings.TrimSpace(out) != "cyberpunk" {
		t.Fatalf("theme show = %q", out)
	}
	if _, err := e.run(t, "setup", "spaceship"); err == nil {
		t.Fatalf("expected unknown project type error")
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "reset"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if n := len(e.srv.Calls("/reset")); n != 0 {
		t.Fatalf("reset called %d times without confirmation", n)
	}
	out := e.mustRun(t, "reset", "--yes")
	if !strings.Contains(out, "Project reset") || len(e.srv.Calls("/reset")) != 1 {
		t.Fatalf("reset output %q calls %d", out, len(e.srv.Calls("/reset")))
	}
}

func TestUploadDirectory(t *testing.T) {
	e := newEnv(t)
	proj := filepath.Join(e.dir, "proj")
	if err := os.MkdirAll(filepath.Join(proj, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := e.mustRun(t, "upload", "-q", proj)
	if !strings.Contains(out, "main.go") {
		t.Fatalf("upload output: %q", out)
	}
	calls := e.srv.Calls("/upload_structure")
	if len(calls) != 1 || calls[0].Form.Get("filename") != "proj.tar.gz" {
		t.Fatalf("upload calls: %+v", calls)
	}

	bad := filepath.Join(e.dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "upload", "-q", bad); err == nil {
		t.Fatalf("expected unsupported archive error")
	}
}

func TestPreviewAndSections(t *testing.T) {
	e := newEnv(t)
	md := filepath.Join(e.dir, "doc.md")
	if err := os.WriteFile(md, []byte("# Title\n\nBuilt with Go, Docker.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := e.mustRun(t, "preview", md, "--html")
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "tech-badge") {
		t.Fatalf("html preview: %q", out)
	}
	out = e.mustRun(t, "preview", md)
	if !strings.Contains(out, "Title") {
		t.Fatalf("terminal preview: %q", out)
	}

	out = e.mustRun(t, "sections", "instal")
	if !strings.HasPrefix(out, "installation") {
		t.Fatalf("sections match: %q", out)
	}
	out = e.mustRun(t, "sections")
	if !strings.Contains(out, "roadmap") {
		t.Fatalf("sections list: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "gen", "config.toml")
	out := e.mustRun(t, "config", "generate", "-o", path)
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("generate output: %q", out)
	}
	if _, err := e.run(t, "config", "generate", "-o", path); err == nil {
		t.Fatalf("expected existing config error")
	}
	out = e.mustRun(t, "config", "generate", "-o", path, "--update")
	if !strings.Contains(out, "up to date") {
		t.Fatalf("update output: %q", out)
	}

	e.mustRun(t, "config", "set", "autosave.debounce", "1s")
	data, _ := os.ReadFile(e.cfgPath)
	if !strings.Contains(string(data), `debounce = "1s"`) {
		t.Fatalf("config set not persisted:\n%s", data)
	}
	if _, err := e.run(t, "config", "set", "autosave.debounce", "soon"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := e.run(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown option error")
	}
}

func TestInvalidConfigReportsProblems(t *testing.T) {
	e := newEnv(t)
	if err := os.WriteFile(e.cfgPath, []byte("server_url = \"ftp://x\"\ntheme = \"pink\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := e.run(t, "status")
	if err == nil {
		t.Fatalf("expected invalid configuration")
	}
	for _, want := range []string{"server_url", "theme"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	// config commands still work with a broken file.
	if _, err := e.run(t, "config", "generate", "-o", filepath.Join(e.dir, "fresh.toml")); err != nil {
		t.Fatalf("generate with invalid config: %v", err)
	}
}
