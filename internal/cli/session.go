package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/mithrel/docgen/internal/editor"
	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/internal/server"
	"github.com/mithrel/docgen/internal/wire"
	"github.com/mithrel/docgen/pkg/models"
)

// finalSaveTimeout bounds the save made after the context was cancelled.
const finalSaveTimeout = 30 * time.Second

// applyDraft parses a draft file into v and reports whether it changed.
func applyDraft(sec models.Section, v *form.Values, content []byte) (bool, error) {
	snap, err := editor.Parse(sec, string(content))
	if err != nil {
		return false, err
	}
	return v.Load(snap), nil
}

// readDraft reads a draft file, or stdin for "-".
func readDraft(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// ensureDraftFile writes the composed draft of v to path unless a file is
// already there.
func ensureDraftFile(path string, sec models.Section, v *form.Values) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(editor.Compose(sec, v)), 0o600); err != nil {
		return false, err
	}
	return true, nil
}

// startPreviewServer serves the live HTML preview until ctx ends. The
// returned channel yields the Serve error once.
func startPreviewServer(ctx context.Context, app *wire.App, addr string, out io.Writer) (*server.Server, <-chan error) {
	srv := server.New(app.Renderer, app.Log)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ctx, addr, func(a net.Addr) {
			_, _ = fmt.Fprintf(out, "Live preview at http://%s/\n", a)
		})
	}()
	return srv, errc
}
