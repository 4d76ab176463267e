package config

import "github.com/mithrel/docgen/internal/archive"

// ConfigOption is one documented setting.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "server_url", Default: "http://127.0.0.1:5000", Comment: "Base URL of the DocGen service"},
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/docgen.db"},
		{Key: "project_type", Default: "", Comment: "Project type chosen at setup (backend, frontend, mobile, ...)"},
		{Key: "theme", Default: "default", Comment: "Document theme; also selects the terminal preview style"},

		{Key: "autosave.debounce", Default: "500ms", Comment: "Quiet period after an edit before the preview refreshes"},
		{Key: "remote.timeout", Default: "20s", Comment: "Deadline for each request to the service"},
		{Key: "remote.verbose", Default: false, Comment: "Log every request to the service"},
		{Key: "preview.style", Default: "dracula", Comment: "Glamour style for themes without their own (default, custom)"},
		{Key: "preview.width", Default: 0, Comment: "Terminal preview wrap width; 0 follows the terminal"},
		{Key: "preview.serve_addr", Default: "127.0.0.1:8765", Comment: "Listen address of the live HTML preview"},
		{Key: "upload.exclude", Default: append([]string(nil), archive.DefaultExcludes...), Comment: "Glob patterns skipped when uploading a directory"},
		{Key: "upload.max_bytes", Default: int64(50 << 20), Comment: "Largest archive accepted for upload"},
		{Key: "editor.keep_tmp", Default: false, Comment: "Keep draft files after an editor session"},
		{Key: "log.file", Default: "", Comment: "Log file used by the TUI; empty means data_dir/docgen.log"},
	}
}
