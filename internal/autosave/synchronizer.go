// Package autosave keeps the editor's section content in step with the
// collaborator. It debounces edits into preview refreshes, runs explicit
// saves, structure uploads and exports, and discards replies that arrive
// after the user has moved to another section.
//
// All mutable state is owned by a single goroutine. Public methods post a
// closure to that goroutine; network replies come back the same way, so no
// field below is ever touched concurrently.
package autosave

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/pkg/api"
)

// DefaultDebounce is the quiet period before an edit refreshes the preview.
const DefaultDebounce = 500 * time.Millisecond

// StructureField receives the tree returned by a structure upload.
const (
	StructureSection = "structure"
	StructureField   = "manual_structure"
)

var (
	ErrClosed           = errors.New("autosave: synchronizer closed")
	ErrUploadInProgress = errors.New("autosave: an upload is already in progress")
	ErrSectionChanged   = errors.New("autosave: section changed before the save started")
)

// Collaborator is the remote side of the editor.
type Collaborator interface {
	UpdateSection(ctx context.Context, snap form.Snapshot) (api.SectionUpdate, error)
	Export(ctx context.Context) (api.Export, error)
	SectionsStatus(ctx context.Context) (map[string]bool, error)
	UploadStructure(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Source produces the current snapshot of a section.
type Source interface {
	Snapshot(section string) (form.Snapshot, error)
}

// FieldSetter is implemented by sources that accept programmatic writes.
type FieldSetter interface {
	SetField(section, field, value string) bool
}

// Journal records successfully saved drafts locally.
type Journal interface {
	PutDraft(ctx context.Context, d api.Draft) error
}

// Sink receives presentation events. Calls arrive in order on a dedicated
// goroutine; a Sink may call back into the Synchronizer but must not Close it.
type Sink interface {
	RenderPreview(section, markdown string)
	Notify(n Notification)
	SectionStatus(status map[string]bool)
	StructureAnalyzed(structure string)
}

// Options tune a Synchronizer. Zero values pick defaults.
type Options struct {
	Debounce    time.Duration
	Timeout     time.Duration
	Clock       clockwork.Clock
	Logger      *log.Logger
	Journal     Journal
	HidePreview bool
}

// SaveResult is the outcome of a save.
type SaveResult struct {
	Section  string
	Markdown string
	// Skipped is set when nothing was dirty and no request was made.
	Skipped bool
}

// State is a copy of the synchronizer's observable state.
type State struct {
	Section        string
	Dirty          bool
	PreviewVisible bool
	Uploading      bool
	Saving         bool
	LastSaved      form.Snapshot
	Epoch          uint64
}

type flight struct {
	active bool
	token  uint64
}

type state struct {
	section        string
	epoch          uint64
	dirty          bool
	changeSeq      uint64
	previewVisible bool
	uploading      bool
	lastSaved      form.Snapshot

	token   uint64
	preview flight
	queued  bool
	save    flight

	saveQueue  []*Future[SaveResult]
	saveSilent bool
}

// Synchronizer serializes edits, previews and saves for one editor session.
type Synchronizer struct {
	collab Collaborator
	source Source
	sink   Sink
	opts   Options
	log    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	ops    chan func()
	once   sync.Once
	quit   chan struct{}
	done   chan struct{}
	out    *outbox

	st       state
	debounce *debouncer
}

// New starts a synchronizer positioned on section.
func New(collab Collaborator, source Source, sink Sink, section string, opts Options) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		collab: collab,
		source: source,
		sink:   sink,
		opts:   opts,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
		ops:    make(chan func(), 64),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		out:    newOutbox(),
	}
	s.st.section = section
	s.st.previewVisible = !opts.HidePreview
	s.debounce = newDebouncer(opts.Clock, opts.Debounce, func(gen uint64) {
		s.post(func() {
			if s.debounce.current(gen) {
				s.debounce.timer = nil
				s.refreshPreview()
			}
		})
	})
	go s.run()
	return s
}

func (s *Synchronizer) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.ops:
			fn()
		case <-s.quit:
			s.shutdown()
			return
		}
	}
}

func (s *Synchronizer) shutdown() {
	s.debounce.cancel()
	for _, f := range s.st.saveQueue {
		f.resolve(SaveResult{}, ErrClosed)
	}
	s.st.saveQueue = nil
}

// post enqueues fn without waiting; it reports false once closed.
func (s *Synchronizer) post(fn func()) bool {
	select {
	case s.ops <- fn:
		return true
	case <-s.done:
		return false
	}
}

// call runs fn on the state goroutine and waits for it.
func (s *Synchronizer) call(fn func()) error {
	ran := make(chan struct{})
	if !s.post(func() { fn(); close(ran) }) {
		return ErrClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrClosed
		}
	}
}

func (s *Synchronizer) emit(fn func(Sink)) {
	if s.sink == nil {
		return
	}
	s.out.push(func() { fn(s.sink) })
}

func (s *Synchronizer) notify(level Level, text string) {
	s.emit(func(k Sink) { k.Notify(Notification{Level: level, Text: text}) })
}

func (s *Synchronizer) requestContext() (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(s.ctx, s.opts.Timeout)
	}
	return context.WithCancel(s.ctx)
}

func (s *Synchronizer) stale(epoch uint64, section string) bool {
	return epoch != s.st.epoch || section != s.st.section
}

// OnFieldChanged marks the section dirty and restarts the debounce timer.
func (s *Synchronizer) OnFieldChanged() {
	_ = s.call(func() {
		s.st.dirty = true
		s.st.changeSeq++
		s.debounce.trigger()
	})
}

// RefreshPreview requests a preview now, bypassing the debounce.
func (s *Synchronizer) RefreshPreview() {
	_ = s.call(func() {
		s.debounce.cancel()
		s.refreshPreview()
	})
}

func (s *Synchronizer) refreshPreview() {
	if !s.st.dirty || !s.st.previewVisible {
		return
	}
	if s.st.preview.active || s.st.save.active {
		s.st.queued = true
		return
	}
	section := s.st.section
	snap, err := s.source.Snapshot(section)
	if err != nil {
		s.log.Printf("autosave: preview %s: %v", section, err)
		return
	}
	s.st.token++
	tok, epoch, seq := s.st.token, s.st.epoch, s.st.changeSeq
	s.st.preview = flight{active: true, token: tok}
	s.st.queued = false

	go func() {
		ctx, cancel := s.requestContext()
		defer cancel()
		res, err := s.collab.UpdateSection(ctx, snap)
		_ = s.call(func() { s.completePreview(tok, epoch, section, seq, res, err) })
	}()
}

func (s *Synchronizer) completePreview(tok, epoch uint64, section string, seq uint64, res api.SectionUpdate, err error) {
	if s.stale(epoch, section) || s.st.preview.token != tok {
		s.log.Printf("autosave: discarding preview for %s", section)
		return
	}
	s.st.preview = flight{}
	if err != nil {
		s.log.Printf("autosave: preview %s: %v", section, err)
		s.notify(LevelError, failureText("Error updating preview", err))
	} else {
		s.emit(func(k Sink) { k.RenderPreview(section, res.Markdown) })
		if s.st.changeSeq == seq {
			s.st.dirty = false
		}
	}
	if s.st.queued {
		s.st.queued = false
		s.refreshPreview()
	}
}

// SaveSection sends the current section. Silent saves only report failures.
// A save requested while another is running waits for it and then sends
// the latest content once on behalf of every waiter.
func (s *Synchronizer) SaveSection(silent bool) *Future[SaveResult] {
	fut := newFuture[SaveResult]()
	if err := s.call(func() { s.requestSave(silent, fut) }); err != nil {
		fut.resolve(SaveResult{}, err)
	}
	return fut
}

// SaveIfDirty saves only when there are unsaved edits.
func (s *Synchronizer) SaveIfDirty(silent bool) *Future[SaveResult] {
	fut := newFuture[SaveResult]()
	err := s.call(func() {
		if !s.st.dirty && !s.st.save.active && len(s.st.saveQueue) == 0 {
			fut.resolve(SaveResult{Section: s.st.section, Skipped: true}, nil)
			return
		}
		s.requestSave(silent, fut)
	})
	if err != nil {
		fut.resolve(SaveResult{}, err)
	}
	return fut
}

func (s *Synchronizer) requestSave(silent bool, fut *Future[SaveResult]) {
	if s.st.save.active {
		if len(s.st.saveQueue) == 0 {
			s.st.saveSilent = true
		}
		s.st.saveQueue = append(s.st.saveQueue, fut)
		s.st.saveSilent = s.st.saveSilent && silent
		return
	}
	s.startSave(silent, []*Future[SaveResult]{fut})
}

func (s *Synchronizer) startSave(silent bool, waiters []*Future[SaveResult]) {
	section := s.st.section
	snap, err := s.source.Snapshot(section)
	if err != nil {
		s.log.Printf("autosave: save %s: %v", section, err)
		if !errors.Is(err, form.ErrNoForm) {
			s.notify(LevelError, failureText("Error saving", err))
		}
		for _, f := range waiters {
			f.resolve(SaveResult{}, err)
		}
		return
	}
	s.st.token++
	tok, epoch, seq := s.st.token, s.st.epoch, s.st.changeSeq
	s.st.save = flight{active: true, token: tok}

	go func() {
		ctx, cancel := s.requestContext()
		defer cancel()
		res, err := s.collab.UpdateSection(ctx, snap)
		if err == nil && s.opts.Journal != nil {
			d := snap.Draft()
			d.SavedAt = s.opts.Clock.Now()
			if jerr := s.opts.Journal.PutDraft(ctx, d); jerr != nil {
				s.log.Printf("autosave: journal %s: %v", section, jerr)
			}
		}
		out := SaveResult{Section: section, Markdown: res.Markdown}
		if cerr := s.call(func() { s.completeSave(tok, epoch, section, seq, snap, silent, out, err) }); cerr != nil && err == nil {
			s.log.Printf("autosave: save %s finished after close", section)
		}
		for _, f := range waiters {
			f.resolve(out, err)
		}
	}()
}

func (s *Synchronizer) completeSave(tok, epoch uint64, section string, seq uint64, snap form.Snapshot, silent bool, res SaveResult, err error) {
	if s.stale(epoch, section) || s.st.save.token != tok {
		s.log.Printf("autosave: discarding save reply for %s", section)
		return
	}
	s.st.save = flight{}
	if err != nil {
		s.log.Printf("autosave: save %s: %v", section, err)
		s.notify(LevelError, failureText("Error saving", err))
	} else {
		s.st.lastSaved = snap
		if s.st.changeSeq == seq {
			s.st.dirty = false
		}
		s.emit(func(k Sink) { k.RenderPreview(section, res.Markdown) })
		if !silent {
			s.notify(LevelSuccess, "Section saved successfully!")
		}
		s.refreshStatus()
	}
	if len(s.st.saveQueue) > 0 {
		queue, quiet := s.st.saveQueue, s.st.saveSilent
		s.st.saveQueue = nil
		s.startSave(quiet, queue)
	}
	if s.st.queued {
		s.st.queued = false
		s.refreshPreview()
	}
}

// RefreshStatus fetches per-section completeness for the sink.
func (s *Synchronizer) RefreshStatus() {
	_ = s.call(s.refreshStatus)
}

func (s *Synchronizer) refreshStatus() {
	go func() {
		ctx, cancel := s.requestContext()
		defer cancel()
		status, err := s.collab.SectionsStatus(ctx)
		if err != nil {
			s.log.Printf("autosave: sections status: %v", err)
			return
		}
		s.emit(func(k Sink) { k.SectionStatus(status) })
	}()
}

// SetSection moves to another section. Pending timers are cancelled,
// queued saves fail with ErrSectionChanged and replies still in flight
// for the previous section will be ignored.
func (s *Synchronizer) SetSection(id string) {
	_ = s.call(func() {
		s.debounce.cancel()
		s.st.epoch++
		s.st.section = id
		s.st.dirty = false
		s.st.lastSaved = form.Snapshot{}
		s.st.preview = flight{}
		s.st.queued = false
		s.st.save = flight{}
		for _, f := range s.st.saveQueue {
			f.resolve(SaveResult{}, ErrSectionChanged)
		}
		s.st.saveQueue = nil
	})
}

// SetPreviewVisible shows or hides the preview. Showing it refreshes
// pending edits immediately.
func (s *Synchronizer) SetPreviewVisible(visible bool) {
	_ = s.call(func() {
		s.st.previewVisible = visible
		if visible {
			s.refreshPreview()
		}
	})
}

// UploadStructure sends a project archive for analysis. Only one upload
// runs at a time.
func (s *Synchronizer) UploadStructure(ctx context.Context, filename string, body io.Reader) *Future[string] {
	fut := newFuture[string]()
	err := s.call(func() {
		if s.st.uploading {
			fut.resolve("", ErrUploadInProgress)
			return
		}
		s.st.uploading = true
		go s.upload(ctx, s.st.epoch, s.st.section, filename, body, fut)
	})
	if err != nil {
		fut.resolve("", err)
	}
	return fut
}

func (s *Synchronizer) upload(ctx context.Context, epoch uint64, section, filename string, body io.Reader, fut *Future[string]) {
	reqCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	structure, err := s.collab.UploadStructure(reqCtx, filename, body)
	cerr := s.call(func() {
		s.st.uploading = false
		if err != nil {
			s.log.Printf("autosave: upload %s: %v", filename, err)
			s.notify(LevelError, failureText("Error uploading structure", err))
			return
		}
		if setter, ok := s.source.(FieldSetter); ok {
			setter.SetField(StructureSection, StructureField, structure)
		}
		s.emit(func(k Sink) { k.StructureAnalyzed(structure) })
		s.notify(LevelSuccess, "Project structure analyzed!")
		if s.stale(epoch, section) {
			s.log.Printf("autosave: upload finished after leaving %s", section)
			return
		}
		s.st.dirty = true
		s.st.changeSeq++
		s.debounce.cancel()
		s.refreshPreview()
	})
	if cerr != nil && err == nil {
		err = cerr
	}
	fut.resolve(structure, err)
}

// Export flushes unsaved edits with a silent save and fetches the
// assembled document.
func (s *Synchronizer) Export(ctx context.Context) *Future[api.Export] {
	fut := newFuture[api.Export]()
	go func() {
		if _, err := s.SaveIfDirty(true).Wait(ctx); err != nil {
			fut.resolve(api.Export{}, err)
			return
		}
		reqCtx, cancel := s.requestContext()
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
		exp, err := s.collab.Export(reqCtx)
		if err != nil {
			s.log.Printf("autosave: export: %v", err)
		}
		fut.resolve(exp, err)
	}()
	return fut
}

// State returns a copy of the current state.
func (s *Synchronizer) State() State {
	var out State
	if err := s.call(func() {
		out = State{
			Section:        s.st.section,
			Dirty:          s.st.dirty,
			PreviewVisible: s.st.previewVisible,
			Uploading:      s.st.uploading,
			Saving:         s.st.save.active,
			LastSaved:      s.st.lastSaved.Clone(),
			Epoch:          s.st.epoch,
		}
	}); err != nil {
		return State{}
	}
	return out
}

// Close stops the synchronizer, cancels requests in flight and delivers
// pending sink events. It must not be called from a Sink method.
func (s *Synchronizer) Close() error {
	s.once.Do(func() {
		close(s.quit)
		<-s.done
		s.cancel()
		s.out.close()
	})
	return nil
}
