package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"

	"github.com/mithrel/docgen/pkg/api"
)

// DefaultExportName is suggested when the server offers no filename.
const DefaultExportName = "README.md"

type exportAction int

const (
	exportNone exportAction = iota
	exportWrite
	exportCopy
	exportClose
)

// exportModal shows the assembled document with a filename field,
// floating above the editor.
type exportModal struct {
	exp      api.Export
	vp       viewport.Model
	filename textinput.Model
	editing  bool
	help     help.Model
	width    int
	height   int
	padX     int
	padY     int
	box      lipglossv2.Style
}

func newExportModal(exp api.Export, termW, termH int) *exportModal {
	m := &exportModal{exp: exp, padX: 2, padY: 1, help: help.New()}
	m.filename = textinput.New()
	m.filename.Prompt = "filename: "
	m.filename.Placeholder = DefaultExportName
	m.filename.SetValue(exp.Filename)
	m.resizeForTerm(termW, termH)
	return m
}

func (m *exportModal) resizeForTerm(termW, termH int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	// 70% width, or nearly full width on small terminals.
	w := int(float64(termW) * 0.7)
	if termW < 80 {
		w = termW - 4
	}
	w = max(w, 32)
	h := int(float64(termH) * 0.8)
	if termH < 20 {
		h = termH - 2
	}
	h = max(h, 10)
	m.width, m.height = w, h
	m.box = lipglossv2.NewStyle().
		Width(w).
		Height(h).
		Padding(m.padY, m.padX).
		Border(lipglossv2.RoundedBorder()).
		BorderForeground(lipglossv2.Color("63"))

	innerW := max(w-2-m.padX*2, 10)
	// title, filename and help lines sit above and below the viewport
	innerH := max(h-2-m.padY*2-4, 3)
	m.filename.Width = innerW - len(m.filename.Prompt) - 1
	m.help.Width = innerW
	if m.vp.Width == 0 {
		m.vp = viewport.New(innerW, innerH)
	} else {
		m.vp.Width = innerW
		m.vp.Height = innerH
	}
	m.vp.SetContent(m.exp.Markdown)
}

// name is the file the export is written to.
func (m *exportModal) name() string {
	if n := strings.TrimSpace(m.filename.Value()); n != "" {
		return n
	}
	return DefaultExportName
}

func (m *exportModal) update(msg tea.Msg) (exportAction, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return exportNone, nil
	case tea.KeyMsg:
		if m.editing {
			switch x.Type {
			case tea.KeyEnter, tea.KeyTab, tea.KeyEsc:
				m.editing = false
				m.filename.Blur()
				return exportNone, nil
			}
			var cmd tea.Cmd
			m.filename, cmd = m.filename.Update(x)
			return exportNone, cmd
		}
		switch {
		case key.Matches(x, keys.Close), x.String() == "ctrl+c":
			return exportClose, nil
		case key.Matches(x, keys.Write):
			return exportWrite, nil
		case key.Matches(x, keys.Copy):
			return exportCopy, nil
		case key.Matches(x, keys.Filename):
			m.editing = true
			return exportNone, m.filename.Focus()
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(x)
		return exportNone, cmd
	}
	return exportNone, nil
}

func (m *exportModal) View() string {
	title := lipglossv2.NewStyle().Bold(true).Render("Export")
	body := strings.Join([]string{
		title,
		m.filename.View(),
		m.vp.View(),
		"",
		m.help.View(exportHelp{keys}),
	}, "\n")
	return m.box.Render(body)
}
