package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mithrel/docgen/internal/archive"
	"github.com/mithrel/docgen/internal/autosave"
	"github.com/mithrel/docgen/internal/render"
	"github.com/mithrel/docgen/pkg/api"
)

const noteTTL = 3 * time.Second

// Follow-ups of a saveDoneMsg; non-negative values are section indexes.
const (
	afterNothing = -1
	afterQuit    = -2
)

// saveDoneMsg conveys a finished save and what to do next.
type saveDoneMsg struct {
	res  autosave.SaveResult
	err  error
	then int
}

// exportDoneMsg carries the assembled document.
type exportDoneMsg struct {
	exp api.Export
	err error
}

// uploadDoneMsg reports an upload; local is set when the path could not be read.
type uploadDoneMsg struct {
	structure string
	err       error
	local     bool
}

type themeDoneMsg struct {
	theme    string
	renderer *render.Renderer
	err      error
}

type writeDoneMsg struct {
	name string
	err  error
}

type copyDoneMsg struct{ err error }

type expireMsg struct{ id int }

func waitSave(ctx context.Context, fut *autosave.Future[autosave.SaveResult], then int) tea.Cmd {
	return func() tea.Msg {
		res, err := fut.Wait(ctx)
		return saveDoneMsg{res: res, err: err, then: then}
	}
}

func exportCmd(ctx context.Context, s *autosave.Synchronizer) tea.Cmd {
	fut := s.Export(ctx)
	return func() tea.Msg {
		exp, err := fut.Wait(ctx)
		return exportDoneMsg{exp: exp, err: err}
	}
}

// uploadCmd packs or opens path and hands it to the synchronizer, which
// reports the analyzed structure through its sink.
func uploadCmd(ctx context.Context, s *autosave.Synchronizer, path string, excludes []string) tea.Cmd {
	return func() tea.Msg {
		name, body, err := archive.Open(ctx, path, excludes)
		if err != nil {
			return uploadDoneMsg{err: err, local: true}
		}
		defer body.Close()
		structure, err := s.UploadStructure(ctx, name, body).Wait(ctx)
		return uploadDoneMsg{structure: structure, err: err}
	}
}

func themeCmd(ctx context.Context, apply func(context.Context, string) (*render.Renderer, error), theme string) tea.Cmd {
	return func() tea.Msg {
		if apply == nil {
			return themeDoneMsg{err: fmt.Errorf("theme switching is not available")}
		}
		r, err := apply(ctx, theme)
		return themeDoneMsg{theme: theme, renderer: r, err: err}
	}
}

func writeCmd(write func(string, []byte) error, name, content string) tea.Cmd {
	return func() tea.Msg {
		return writeDoneMsg{name: name, err: write(name, []byte(content))}
	}
}

func copyCmd(copyFn func(string) error, text string) tea.Cmd {
	return func() tea.Msg { return copyDoneMsg{err: copyFn(text)} }
}

func expireCmd(id int) tea.Cmd {
	return tea.Tick(noteTTL, func(time.Time) tea.Msg { return expireMsg{id: id} })
}
