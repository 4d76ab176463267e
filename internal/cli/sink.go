package cli

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/mithrel/docgen/internal/autosave"
	"github.com/mithrel/docgen/internal/server"
)

// consoleSink reports synchronizer events on a terminal without a TUI.
// Previews go to the live preview server when one is running.
type consoleSink struct {
	mu     sync.Mutex
	out    io.Writer
	server *server.Server
	log    *log.Logger
	quiet  bool
}

func (s *consoleSink) RenderPreview(section, markdown string) {
	if s.server == nil {
		return
	}
	if err := s.server.Publish(section, markdown); err != nil {
		s.log.Printf("server: publish %s: %v", section, err)
	}
}

func (s *consoleSink) Notify(n autosave.Notification) {
	if s.quiet && n.Level < autosave.LevelWarning {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "[%s] %s\n", n.Level, n.Text)
}

func (s *consoleSink) SectionStatus(map[string]bool) {}

func (s *consoleSink) StructureAnalyzed(structure string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "Project structure analyzed:\n%s\n", structure)
}

func notifyError(text string) autosave.Notification {
	return autosave.Notification{Level: autosave.LevelError, Text: text}
}
