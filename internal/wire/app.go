package wire

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mithrel/docgen/internal/autosave"
	"github.com/mithrel/docgen/internal/config"
	"github.com/mithrel/docgen/internal/db"
	"github.com/mithrel/docgen/internal/remote"
	"github.com/mithrel/docgen/internal/render"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *log.Logger
	Store    *db.Store
	Remote   *remote.Client
	Renderer *render.Renderer

	logFile io.Closer
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	logger := log.New(os.Stderr, "docgen ", log.LstdFlags)
	store, err := db.Open(ctx, "sqlite://"+config.ResolveDBPath(v))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	client, err := remote.New(ctx, remote.Options{
		BaseURL:   v.GetString("server_url"),
		Timeout:   v.GetDuration("remote.timeout"),
		MaxUpload: v.GetInt64("upload.max_bytes"),
		Cookies:   store.Cookies,
		Logger:    logger,
		Verbose:   v.GetBool("remote.verbose"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &App{
		Cfg:      v,
		Log:      logger,
		Store:    store,
		Remote:   client,
		Renderer: render.New(render.StyleForTheme(v.GetString("theme"), v.GetString("preview.style"))),
	}, nil
}

// Template loads the section template for the configured project type.
func (a *App) Template() (models.Template, error) {
	return models.LoadTemplate(api.ProjectType(a.Cfg.GetString("project_type")))
}

// SetTheme switches the preview style to match a document theme.
func (a *App) SetTheme(theme string) {
	a.Renderer = render.New(render.StyleForTheme(theme, a.Cfg.GetString("preview.style")))
}

// PreviewWidth is the configured wrap width, or fallback when unset.
func (a *App) PreviewWidth(fallback int) int {
	if w := a.Cfg.GetInt("preview.width"); w > 0 {
		return w
	}
	return fallback
}

// Synchronizer starts an autosave session on section.
func (a *App) Synchronizer(source autosave.Source, sink autosave.Sink, section string) *autosave.Synchronizer {
	return autosave.New(a.Remote, source, sink, section, autosave.Options{
		Debounce: a.Cfg.GetDuration("autosave.debounce"),
		Timeout:  a.Cfg.GetDuration("remote.timeout"),
		Logger:   a.Log,
		Journal:  a.Store.Drafts,
	})
}

// LogToFile redirects the logger to the configured log file. Full-screen
// modes call it so log lines do not land on the alternate screen.
func (a *App) LogToFile() error {
	path := config.ResolveLogPath(a.Cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	a.Log.SetOutput(f)
	a.logFile = f
	return nil
}

// Close releases the store and the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		a.Log.SetOutput(os.Stderr)
		_ = a.logFile.Close()
	}
	return a.Store.Close()
}
