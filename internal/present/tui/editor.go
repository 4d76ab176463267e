package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/docgen/internal/autosave"
	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/internal/render"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

const sidebarWidth = 28

var (
	sidebarStyle  = lipgloss.NewStyle().Width(sidebarWidth).PaddingRight(1).BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(lipgloss.Color("240"))
	currentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	previewBorder = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	noteStyles    = map[autosave.Level]lipgloss.Style{
		autosave.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		autosave.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		autosave.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		autosave.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
)

// Options configures an editor session.
type Options struct {
	Template models.Template
	Forms    *form.Holder
	// Start is the section opened first; empty means the first one.
	Start    string
	Renderer *render.Renderer
	// Width fixes the preview wrap width; 0 follows the pane.
	Width    int
	Theme    string
	Excludes []string
	// SetTheme applies a theme on the server and returns the renderer to use.
	SetTheme func(ctx context.Context, theme string) (*render.Renderer, error)
	// NewSync starts the synchronizer that serves this session.
	NewSync   func(sink autosave.Sink, section string) *autosave.Synchronizer
	Clipboard func(text string) error
	WriteFile func(name string, data []byte) error
}

type note struct {
	id    int
	level autosave.Level
	text  string
}

type model struct {
	ctx      context.Context
	opts     Options
	sync     *autosave.Synchronizer
	sections []models.Section
	cur      int
	status   map[string]bool

	fields []*fieldWidget
	focus  int
	formW  int

	preview   viewport.Model
	previewOn bool
	markdown  string
	renderer  *render.Renderer
	theme     string

	notes   []note
	noteSeq int
	modal   *exportModal
	help    help.Model

	width    int
	height   int
	busy     bool
	quitting bool
	// discard is set after a failed save on quit; quitting again drops the edits.
	discard bool
}

// Run opens the editor and blocks until the user quits. Unsaved edits are
// saved silently on the way out.
func Run(ctx context.Context, opts Options) error {
	sink := &programSink{}
	m, err := newModel(ctx, opts, sink)
	if err != nil {
		return err
	}
	defer m.sync.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.attach(p.Send)
	_, err = p.Run()
	return err
}

func newModel(ctx context.Context, opts Options, sink autosave.Sink) (model, error) {
	if len(opts.Template.Sections) == 0 {
		return model{}, errors.New("template has no sections")
	}
	if opts.Forms == nil {
		opts.Forms = form.NewHolder()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.DefaultStyle)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.WriteFile == nil {
		opts.WriteFile = func(name string, data []byte) error { return os.WriteFile(name, data, 0o644) }
	}
	if opts.Theme == "" {
		opts.Theme = "default"
	}
	cur := 0
	if opts.Start != "" {
		if cur = opts.Template.Index(opts.Start); cur < 0 {
			return model{}, fmt.Errorf("unknown section %q", opts.Start)
		}
	}
	for _, sec := range opts.Template.Sections {
		if _, ok := opts.Forms.Get(sec.ID); !ok {
			opts.Forms.Put(form.New(sec))
		}
	}
	m := model{
		ctx:       ctx,
		opts:      opts,
		sections:  opts.Template.Sections,
		cur:       cur,
		status:    map[string]bool{},
		previewOn: true,
		renderer:  opts.Renderer,
		theme:     opts.Theme,
		help:      help.New(),
		preview:   viewport.New(40, 10),
		width:     100,
		height:    30,
	}
	m.sync = opts.NewSync(sink, m.current().ID)
	m.loadSection()
	m.layout()
	return m, nil
}

func (m model) current() models.Section { return m.sections[m.cur] }

func (m model) values() *form.Values {
	v, _ := m.opts.Forms.Get(m.current().ID)
	return v
}

// loadSection rebuilds the widgets for the current section.
func (m *model) loadSection() {
	v := m.values()
	m.fields = nil
	for _, spec := range m.current().Fields {
		m.fields = append(m.fields, newFieldWidget(spec, v, m.formW-4))
	}
	m.focus = -1
	m.moveFocus(1)
	m.markdown = ""
	m.renderPreview()
}

func (m *model) focused() *fieldWidget {
	if m.focus < 0 || m.focus >= len(m.fields) {
		return nil
	}
	return m.fields[m.focus]
}

// moveFocus steps to the next visible field in direction dir, wrapping.
func (m *model) moveFocus(dir int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	v := m.values()
	if w := m.focused(); w != nil {
		w.blur()
	}
	start := m.focus
	n := len(m.fields)
	for step := 1; step <= n; step++ {
		var i int
		switch {
		case start >= 0:
			i = ((start+dir*step)%n + n) % n
		case dir > 0:
			i = step - 1
		default:
			i = n - step
		}
		if v.Visible(m.fields[i].spec) {
			m.focus = i
			return m.fields[i].focus()
		}
	}
	m.focus = -1
	return nil
}

func (m *model) layout() {
	bodyH := max(m.height-3, 5)
	rest := max(m.width-sidebarWidth-1, 20)
	m.formW = rest
	if m.previewOn {
		m.formW = rest / 2
	}
	for _, w := range m.fields {
		w.setWidth(m.formW - 4)
	}
	m.preview.Width = max(rest-m.formW-2, 10)
	m.preview.Height = max(bodyH-2, 3)
	m.help.Width = m.width
	m.renderPreview()
}

func (m *model) renderPreview() {
	if m.markdown == "" {
		m.preview.SetContent(pendingStyle.Render("The preview appears after the first change."))
		return
	}
	width := m.opts.Width
	if width <= 0 {
		width = m.preview.Width
	}
	out, err := m.renderer.Terminal(m.markdown, width)
	if err != nil {
		out = m.markdown
	}
	m.preview.SetContent(out)
}

func (m *model) pushNote(level autosave.Level, text string) tea.Cmd {
	m.noteSeq++
	m.notes = append(m.notes, note{id: m.noteSeq, level: level, text: text})
	if len(m.notes) > 3 {
		m.notes = m.notes[len(m.notes)-3:]
	}
	return expireCmd(m.noteSeq)
}

func (m model) Init() tea.Cmd {
	var focus tea.Cmd
	if w := m.focused(); w != nil {
		focus = w.focus()
	}
	s := m.sync
	return tea.Batch(focus, func() tea.Msg {
		s.RefreshStatus()
		return nil
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.modal != nil {
			m.modal.resizeForTerm(msg.Width, msg.Height)
		}
		return m, nil
	case previewMsg:
		if msg.section == m.current().ID {
			m.markdown = msg.markdown
			m.renderPreview()
		}
		return m, nil
	case notifyMsg:
		return m, m.pushNote(msg.n.Level, msg.n.Text)
	case statusMsg:
		m.status = msg.status
		return m, nil
	case structureMsg:
		if m.current().ID == autosave.StructureSection {
			for _, w := range m.fields {
				if w.spec.ID == autosave.StructureField {
					w.reload(m.values())
				}
			}
		}
		return m, nil
	case expireMsg:
		for i, n := range m.notes {
			if n.id == msg.id {
				m.notes = append(m.notes[:i:i], m.notes[i+1:]...)
				break
			}
		}
		return m, nil
	case saveDoneMsg:
		return m.afterSave(msg)
	case exportDoneMsg:
		if msg.err != nil {
			return m, m.pushNote(autosave.LevelError, "Error generating markdown. Try again.")
		}
		m.modal = newExportModal(msg.exp, m.width, m.height)
		return m, nil
	case uploadDoneMsg:
		switch {
		case msg.local:
			return m, m.pushNote(autosave.LevelError, "Error uploading structure: "+msg.err.Error())
		case errors.Is(msg.err, autosave.ErrUploadInProgress):
			return m, m.pushNote(autosave.LevelWarning, "An upload is already in progress.")
		}
		return m, nil
	case themeDoneMsg:
		if msg.err != nil {
			return m, m.pushNote(autosave.LevelError, "Error updating theme: "+msg.err.Error())
		}
		m.theme = msg.theme
		if msg.renderer != nil {
			m.renderer = msg.renderer
		}
		m.renderPreview()
		return m, m.pushNote(autosave.LevelSuccess, "Theme changed to "+msg.theme)
	case writeDoneMsg:
		if msg.err != nil {
			return m, m.pushNote(autosave.LevelError, "Error writing "+msg.name+": "+msg.err.Error())
		}
		return m, m.pushNote(autosave.LevelSuccess, "File "+msg.name+" written successfully!")
	case copyDoneMsg:
		if msg.err != nil {
			return m, m.pushNote(autosave.LevelError, "Error copying. Try selecting the text manually.")
		}
		return m, m.pushNote(autosave.LevelSuccess, "Markdown copied to clipboard!")
	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		if m.modal != nil {
			return m.updateModal(msg)
		}
		return m.handleKey(msg)
	}
	if w := m.focused(); w != nil {
		return m, w.tick(msg)
	}
	return m, nil
}

func (m model) afterSave(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && msg.then != afterNothing {
		m.quitting = false
		m.busy = false
		if msg.then == afterQuit {
			m.discard = true
			cmd := m.pushNote(autosave.LevelError, "Save failed; press quit again to discard your changes.")
			return m, cmd
		}
		cmd := m.pushNote(autosave.LevelError, "Save failed; staying on this section.")
		return m, cmd
	}
	switch {
	case msg.then == afterQuit:
		return m, tea.Quit
	case msg.then >= 0 && msg.then < len(m.sections):
		m.busy = false
		m.cur = msg.then
		m.sync.SetSection(m.current().ID)
		m.loadSection()
		m.layout()
		var focus tea.Cmd
		if w := m.focused(); w != nil {
			focus = w.focus()
		}
		return m, focus
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if m.discard {
			return m, tea.Quit
		}
		m.quitting = true
		return m, waitSave(m.ctx, m.sync.SaveIfDirty(true), afterQuit)
	case key.Matches(msg, keys.Save):
		return m, waitSave(m.ctx, m.sync.SaveSection(false), afterNothing)
	case key.Matches(msg, keys.Export):
		return m, exportCmd(m.ctx, m.sync)
	case key.Matches(msg, keys.Preview):
		m.previewOn = !m.previewOn
		m.sync.SetPreviewVisible(m.previewOn)
		m.layout()
		return m, nil
	case key.Matches(msg, keys.NextSec):
		return m, m.navigate(m.cur + 1)
	case key.Matches(msg, keys.PrevSec):
		return m, m.navigate(m.cur - 1)
	case key.Matches(msg, keys.Theme):
		return m, themeCmd(m.ctx, m.opts.SetTheme, nextIn(api.Themes, m.theme))
	case key.Matches(msg, keys.Upload):
		w := m.focused()
		if w == nil || w.spec.Kind != models.KindFile {
			return m, m.pushNote(autosave.LevelWarning, "Focus a file field to upload a project.")
		}
		if w.path() == "" {
			return m, m.pushNote(autosave.LevelWarning, "Type the path of an archive or directory first.")
		}
		return m, tea.Batch(
			m.pushNote(autosave.LevelInfo, "Uploading "+w.path()+"…"),
			uploadCmd(m.ctx, m.sync, w.path(), m.opts.Excludes),
		)
	case key.Matches(msg, keys.Next):
		return m, m.moveFocus(1)
	case key.Matches(msg, keys.Prev):
		return m, m.moveFocus(-1)
	}

	w := m.focused()
	if w == nil {
		return m, nil
	}
	changed, cmd := w.update(msg, m.values())
	if changed {
		m.discard = false
		m.sync.OnFieldChanged()
	}
	return m, cmd
}

// navigate saves pending edits and then moves to section i.
func (m *model) navigate(i int) tea.Cmd {
	if i < 0 || i >= len(m.sections) || i == m.cur || m.busy {
		return nil
	}
	m.busy = true
	return waitSave(m.ctx, m.sync.SaveIfDirty(true), i)
}

func (m model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := m.modal.update(msg)
	switch action {
	case exportClose:
		m.modal = nil
	case exportWrite:
		return m, writeCmd(m.opts.WriteFile, m.modal.name(), m.modal.exp.Markdown)
	case exportCopy:
		return m, copyCmd(m.opts.Clipboard, m.modal.exp.Markdown)
	}
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return "Saving…\n"
	}
	base := m.editorView()
	if m.modal != nil {
		return m.renderOverlay(base, m.modal.View(), m.modal.width, m.modal.height)
	}
	return base
}

func (m model) editorView() string {
	bodyH := max(m.height-3, 5)
	panes := []string{m.sidebarView(bodyH), lipgloss.NewStyle().Width(m.formW).Padding(0, 1).Render(m.formView(bodyH))}
	if m.previewOn {
		panes = append(panes, previewBorder.Render(m.preview.View()))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	return body + "\n" + m.notesView() + "\n" + m.help.View(editorHelp{keys})
}

func (m model) sidebarView(height int) string {
	lines := []string{titleStyle.Render("Sections"), ""}
	for i, sec := range m.sections {
		mark := pendingStyle.Render("·")
		if done, ok := m.status[sec.ID]; ok {
			if done {
				mark = doneStyle.Render("✓")
			} else {
				mark = pendingStyle.Render("○")
			}
		}
		label := truncate(sec.Title, sidebarWidth-4)
		if i == m.cur {
			label = currentStyle.Render(label)
		}
		lines = append(lines, mark+" "+label)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return sidebarStyle.Height(height).Render(strings.Join(lines, "\n"))
}

// formView renders the visible fields, scrolled so the focused one shows.
func (m model) formView(height int) string {
	v := m.values()
	lines := []string{titleStyle.Render(m.current().Title)}
	if missing := v.Missing(); len(missing) > 0 {
		lines = append(lines, pendingStyle.Render(fmt.Sprintf("%d required field(s) empty", len(missing))))
	}
	lines = append(lines, "")
	focusStart, focusEnd := 0, 0
	for i, w := range m.fields {
		if !v.Visible(w.spec) {
			continue
		}
		if i == m.focus {
			focusStart = len(lines)
		}
		lines = append(lines, strings.Split(w.view(v, i == m.focus), "\n")...)
		if i == m.focus {
			focusEnd = len(lines)
		}
		lines = append(lines, "")
	}
	top := 0
	if focusEnd > height {
		top = min(focusStart, focusEnd-height)
	}
	end := min(len(lines), top+height)
	return strings.Join(lines[top:end], "\n")
}

func (m model) notesView() string {
	if len(m.notes) == 0 {
		return ""
	}
	n := m.notes[len(m.notes)-1]
	return noteStyles[n.level].Render(truncate(n.text, max(m.width, 20)))
}
