package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mithrel/docgen/internal/autosave"
)

type previewMsg struct{ section, markdown string }

type notifyMsg struct{ n autosave.Notification }

type statusMsg struct{ status map[string]bool }

type structureMsg struct{ structure string }

// programSink forwards synchronizer events into the running program.
// Events that arrive before attach are dropped.
type programSink struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (s *programSink) attach(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

func (s *programSink) deliver(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (s *programSink) RenderPreview(section, markdown string) {
	s.deliver(previewMsg{section: section, markdown: markdown})
}

func (s *programSink) Notify(n autosave.Notification) { s.deliver(notifyMsg{n: n}) }

func (s *programSink) SectionStatus(status map[string]bool) { s.deliver(statusMsg{status: status}) }

func (s *programSink) StructureAnalyzed(structure string) {
	s.deliver(structureMsg{structure: structure})
}
