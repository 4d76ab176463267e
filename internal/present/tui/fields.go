package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/pkg/models"
)

var (
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusedLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	requiredMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("*")
	optionCursor  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

const textareaLines = 4

// fieldWidget edits one template field. Text-like kinds keep their own
// buffer; option kinds read and write the form values directly.
type fieldWidget struct {
	spec   models.FieldSpec
	input  textinput.Model
	area   textarea.Model
	cursor int
}

func newFieldWidget(spec models.FieldSpec, v *form.Values, width int) *fieldWidget {
	w := &fieldWidget{spec: spec}
	switch spec.Kind {
	case models.KindText, models.KindFile:
		w.input = textinput.New()
		w.input.Prompt = "› "
		w.input.Placeholder = spec.Placeholder
		if spec.Kind == models.KindFile {
			w.input.Placeholder = "path to " + spec.Accept + " archive or a directory"
		} else {
			w.input.SetValue(v.Get(spec.ID))
		}
	case models.KindTextarea, models.KindTags:
		w.area = textarea.New()
		w.area.ShowLineNumbers = false
		w.area.Placeholder = spec.Placeholder
		w.area.CharLimit = 0
		w.area.SetHeight(textareaLines)
		if spec.Kind == models.KindTags {
			w.area.SetHeight(1)
		}
		w.area.SetValue(v.Get(spec.ID))
	default:
		for i, opt := range spec.Options {
			if v.Get(spec.ID) == opt {
				w.cursor = i
			}
		}
	}
	w.setWidth(width)
	return w
}

func (w *fieldWidget) setWidth(width int) {
	width = max(width, 10)
	switch w.spec.Kind {
	case models.KindText, models.KindFile:
		w.input.Width = width - lipgloss.Width(w.input.Prompt) - 1
	case models.KindTextarea, models.KindTags:
		w.area.SetWidth(width)
	}
}

func (w *fieldWidget) focus() tea.Cmd {
	switch w.spec.Kind {
	case models.KindText, models.KindFile:
		return w.input.Focus()
	case models.KindTextarea, models.KindTags:
		return w.area.Focus()
	}
	return nil
}

func (w *fieldWidget) blur() {
	switch w.spec.Kind {
	case models.KindText, models.KindFile:
		w.input.Blur()
	case models.KindTextarea, models.KindTags:
		w.area.Blur()
	}
}

// reload copies the stored value back into a text buffer, used when the
// value was replaced from outside the widget.
func (w *fieldWidget) reload(v *form.Values) {
	switch w.spec.Kind {
	case models.KindText:
		w.input.SetValue(v.Get(w.spec.ID))
	case models.KindTextarea, models.KindTags:
		w.area.SetValue(v.Get(w.spec.ID))
	}
}

// path is the upload path typed into a file field.
func (w *fieldWidget) path() string {
	return strings.TrimSpace(w.input.Value())
}

// tick forwards non-key messages such as cursor blinks.
func (w *fieldWidget) tick(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch w.spec.Kind {
	case models.KindText, models.KindFile:
		w.input, cmd = w.input.Update(msg)
	case models.KindTextarea, models.KindTags:
		w.area, cmd = w.area.Update(msg)
	}
	return cmd
}

// update applies a key to the widget and reports whether the submitted
// form changed. File fields never change the submitted form.
func (w *fieldWidget) update(msg tea.KeyMsg, v *form.Values) (bool, tea.Cmd) {
	var cmd tea.Cmd
	switch w.spec.Kind {
	case models.KindFile:
		w.input, cmd = w.input.Update(msg)
		return false, cmd
	case models.KindText:
		w.input, cmd = w.input.Update(msg)
		return v.Set(w.spec.ID, w.input.Value()), cmd
	case models.KindTextarea, models.KindTags:
		if w.spec.Kind == models.KindTags && msg.Type == tea.KeyEnter {
			return false, nil
		}
		w.area, cmd = w.area.Update(msg)
		return v.Set(w.spec.ID, w.area.Value()), cmd
	}

	switch msg.String() {
	case "up", "left", "k", "h":
		w.cursor = clamp(w.cursor-1, 0, len(w.spec.Options)-1)
	case "down", "right", "j", "l":
		w.cursor = clamp(w.cursor+1, 0, len(w.spec.Options)-1)
	case " ", "enter", "x":
		if len(w.spec.Options) == 0 {
			return false, nil
		}
		opt := w.spec.Options[w.cursor]
		if w.spec.Kind == models.KindCheckbox {
			return v.Toggle(w.spec.ID, opt), nil
		}
		return v.Set(w.spec.ID, opt), nil
	}
	return false, nil
}

func (w *fieldWidget) view(v *form.Values, focused bool) string {
	var b strings.Builder
	label := labelStyle
	if focused {
		label = focusedLabel
	}
	b.WriteString(label.Render(w.spec.Label))
	if w.spec.Required {
		b.WriteString(" " + requiredMark)
	}
	b.WriteString("\n")

	switch w.spec.Kind {
	case models.KindText, models.KindFile:
		b.WriteString(w.input.View())
		if w.spec.Kind == models.KindFile && focused {
			b.WriteString("\n" + hintStyle.Render("ctrl+u uploads this path"))
		}
	case models.KindTextarea, models.KindTags:
		b.WriteString(w.area.View())
		if w.spec.Kind == models.KindTags {
			b.WriteString("\n" + hintStyle.Render("comma separated"))
		}
	default:
		for i, opt := range w.spec.Options {
			pointer := "  "
			if focused && i == w.cursor {
				pointer = optionCursor.Render("› ")
			}
			b.WriteString(pointer + w.marker(v, opt) + " " + opt)
			if i < len(w.spec.Options)-1 {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (w *fieldWidget) marker(v *form.Values, opt string) string {
	switch w.spec.Kind {
	case models.KindCheckbox:
		if v.Checked(w.spec.ID, opt) {
			return "[x]"
		}
		return "[ ]"
	default:
		if v.Get(w.spec.ID) == opt {
			return "(•)"
		}
		return "( )"
	}
}
