// Package watch reports a file's content whenever an editor saves it.
package watch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet collapses the write bursts editors produce on save.
const DefaultQuiet = 100 * time.Millisecond

// Watcher calls onChange with the file content after writes settle.
// Unchanged content is not reported twice.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce func(func())
	onChange func([]byte)
	log      *log.Logger

	mu   sync.Mutex
	last []byte
	done chan struct{}
}

// New watches path. The directory is watched so editors that replace the
// file on save keep being observed.
func New(path string, quiet time.Duration, onChange func([]byte), logger *log.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: debounce.New(quiet),
		onChange: onChange,
		log:      logger,
		done:     make(chan struct{}),
	}
	if b, err := os.ReadFile(abs); err == nil {
		w.last = b
	}
	go w.loop()
	return w, nil
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.debounce(w.fire)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Printf("watch: %v", err)
		}
	}
}

func (w *Watcher) fire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	content, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.log.Printf("watch: read %s: %v", w.path, err)
		}
		return
	}
	if w.last != nil && bytes.Equal(content, w.last) {
		return
	}
	w.last = content
	if w.onChange != nil {
		w.onChange(content)
	}
}

// Flush reports the current content now if it differs from the last report.
func (w *Watcher) Flush() { w.fire() }

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
