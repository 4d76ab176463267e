package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Save     key.Binding
	Export   key.Binding
	Preview  key.Binding
	NextSec  key.Binding
	PrevSec  key.Binding
	Theme    key.Binding
	Upload   key.Binding
	Quit     key.Binding
	Write    key.Binding
	Copy     key.Binding
	Filename key.Binding
	Close    key.Binding
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Export:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
	Preview:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "preview")),
	NextSec:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next section")),
	PrevSec:  key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "prev section")),
	Theme:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
	Upload:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "upload")),
	Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	Write:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write file")),
	Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	Filename: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filename")),
	Close:    key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
}

// editorHelp and exportHelp select the bindings shown in the footer.
type editorHelp struct{ k keyMap }

func (h editorHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Next, h.k.Save, h.k.Export, h.k.Preview, h.k.NextSec, h.k.PrevSec, h.k.Theme, h.k.Quit}
}

func (h editorHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp(), {h.k.Prev, h.k.Upload}}
}

type exportHelp struct{ k keyMap }

func (h exportHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Write, h.k.Copy, h.k.Filename, h.k.Close}
}

func (h exportHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }
