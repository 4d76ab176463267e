package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func loaded(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err := Load(context.Background(), v); err != nil {
		t.Fatalf("load: %v", err)
	}
	return v
}

func TestCheckConfigValidityValid(t *testing.T) {
	v := loaded(t)
	if err := CheckConfigValidity(v); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := loaded(t)
	v.Set("server_url", "ftp://example.com")
	v.Set("data_dir", "")
	v.Set("autosave.debounce", "0s")
	v.Set("remote.timeout", "soon")
	v.Set("preview.width", -1)
	v.Set("upload.max_bytes", 0)
	v.Set("theme", "solarized")
	v.Set("project_type", "desktop")
	v.Set("preview.style", "nope")
	v.Set("upload.exclude", []string{"[a-"})

	err := CheckConfigValidity(v)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}

	msg := err.Error()
	expected := []string{
		"server_url must be an http(s) URL",
		"data_dir is required",
		"autosave.debounce must be a positive duration",
		"remote.timeout must be a positive duration",
		"preview.width must not be negative",
		"upload.max_bytes must be greater than 0",
		"theme must be one of",
		"project_type must be one of",
		`preview.style "nope"`,
		"upload.exclude",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "server_url = \"http://docs.local:5000/\"\ntheme = \"dark\"\n[preview]\nwidth = 100\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCGEN_THEME", "neon")
	t.Setenv("DOCGEN_UPLOAD_EXCLUDE", "vendor/**, ,*.log")

	v := viper.New()
	v.SetConfigFile(path)
	if err := Load(context.Background(), v); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := v.GetString("server_url"); got != "http://docs.local:5000" {
		t.Fatalf("server_url = %q", got)
	}
	if got := v.GetString("theme"); got != "neon" {
		t.Fatalf("env should win over file, theme = %q", got)
	}
	if got := v.GetInt("preview.width"); got != 100 {
		t.Fatalf("preview.width = %d", got)
	}
	if got := v.GetStringSlice("upload.exclude"); len(got) != 2 || got[0] != "vendor/**" || got[1] != "*.log" {
		t.Fatalf("upload.exclude = %v", got)
	}
	if got := v.GetString("autosave.debounce"); got != "500ms" {
		t.Fatalf("default debounce = %q", got)
	}
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server_url = \n[[["), 0o600); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := Load(context.Background(), v); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolvePaths(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "/var/lib/docgen")
	if got := ResolveDBPath(v); got != "/var/lib/docgen/docgen.db" {
		t.Fatalf("db path = %q", got)
	}
	if got := ResolveLogPath(v); got != "/var/lib/docgen/docgen.log" {
		t.Fatalf("log path = %q", got)
	}
	v.Set("log.file", "/tmp/x.log")
	if got := ResolveLogPath(v); got != "/tmp/x.log" {
		t.Fatalf("log path = %q", got)
	}
}
