package autosave

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/internal/remote"
	"github.com/mithrel/docgen/internal/remote/remotetest"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

const (
	wait = time.Second
	tick = 5 * time.Millisecond
)

type preview struct {
	section  string
	markdown string
}

type recorder struct {
	mu         sync.Mutex
	previews   []preview
	notes      []Notification
	statuses   []map[string]bool
	structures []string
}

func (r *recorder) RenderPreview(section, md string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previews = append(r.previews, preview{section, md})
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) SectionStatus(status map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) StructureAnalyzed(structure string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.structures = append(r.structures, structure)
}

func (r *recorder) Previews() []preview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]preview(nil), r.previews...)
}

func (r *recorder) Notes() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) Statuses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

type journal struct {
	mu     sync.Mutex
	drafts []api.Draft
}

func (j *journal) PutDraft(_ context.Context, d api.Draft) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.drafts = append(j.drafts, d)
	return nil
}

func (j *journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.drafts)
}

type harness struct {
	srv     *remotetest.Server
	client  *remote.Client
	forms   *form.Holder
	sink    *recorder
	clock   clockwork.FakeClock
	journal *journal
	sync    *Synchronizer
}

func newHarness(t *testing.T, section string, opts Options) *harness {
	t.Helper()
	srv := remotetest.New(t)
	client, err := remote.New(context.Background(), remote.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return newHarnessWith(t, srv, client, client, section, opts)
}

func newHarnessWith(t *testing.T, srv *remotetest.Server, client *remote.Client, collab Collaborator, section string, opts Options) *harness {
	t.Helper()
	tpl, err := models.LoadTemplate(api.ProjectBackend)
	require.NoError(t, err)
	forms := form.NewHolder()
	for _, sec := range tpl.Sections {
		forms.Put(form.New(sec))
	}
	h := &harness{
		srv:     srv,
		client:  client,
		forms:   forms,
		sink:    &recorder{},
		clock:   clockwork.NewFakeClock(),
		journal: &journal{},
	}
	opts.Clock = h.clock
	opts.Journal = h.journal
	h.sync = New(collab, forms, h.sink, section, opts)
	t.Cleanup(func() { _ = h.sync.Close() })
	return h
}

func (h *harness) edit(t *testing.T, section, field, value string) {
	t.Helper()
	v, ok := h.forms.Get(section)
	require.True(t, ok)
	v.Set(field, value)
	h.sync.OnFieldChanged()
}

func (h *harness) updates(n int) func() bool {
	return func() bool { return h.srv.UpdateCount() == n }
}

func TestDebounceCoalescesEdits(t *testing.T) {
	h := newHarness(t, "about", Options{})

	h.edit(t, "about", "description", "a")
	h.clock.Advance(100 * time.Millisecond)
	h.edit(t, "about", "description", "ab")
	h.clock.Advance(50 * time.Millisecond)
	h.edit(t, "about", "description", "abc")

	h.clock.Advance(499 * time.Millisecond)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 0 }, 50*time.Millisecond, tick)

	h.clock.Advance(time.Millisecond)
	require.Eventually(t, h.updates(1), wait, tick)
	require.Eventually(t, func() bool { return len(h.sink.Previews()) == 1 }, wait, tick)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 1 }, 50*time.Millisecond, tick)

	assert.Equal(t, "abc", h.srv.Calls("/update_section")[0].Form.Get("description"))
	assert.False(t, h.sync.State().Dirty)
	assert.Empty(t, h.sink.Notes())
}

func TestRefreshWithoutChangesSendsNothing(t *testing.T) {
	h := newHarness(t, "about", Options{})
	h.sync.RefreshPreview()
	h.clock.Advance(time.Second)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 0 }, 50*time.Millisecond, tick)
}

func TestHiddenPreviewWaitsUntilShown(t *testing.T) {
	h := newHarness(t, "about", Options{HidePreview: true})
	h.edit(t, "about", "description", "x")
	h.clock.Advance(time.Second)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 0 }, 50*time.Millisecond, tick)
	require.True(t, h.sync.State().Dirty)

	h.sync.SetPreviewVisible(true)
	require.Eventually(t, h.updates(1), wait, tick)
}

func TestStaleReplyAfterSectionChangeIsDiscarded(t *testing.T) {
	h := newHarness(t, "about", Options{})
	gate := make(chan struct{})
	h.srv.SetGate(gate)

	h.edit(t, "about", "description", "x")
	h.sync.RefreshPreview()
	require.Eventually(t, h.updates(1), wait, tick)

	h.sync.SetSection("usage")
	close(gate)

	require.Never(t, func() bool { return len(h.sink.Previews()) > 0 }, 100*time.Millisecond, tick)
	st := h.sync.State()
	assert.Equal(t, "usage", st.Section)
	assert.False(t, st.Dirty)
	assert.Equal(t, uint64(1), st.Epoch)
}

func TestChangeDuringRequestKeepsDirty(t *testing.T) {
	h := newHarness(t, "about", Options{})
	gate := make(chan struct{})
	h.srv.SetGate(gate)

	h.edit(t, "about", "description", "first")
	h.sync.RefreshPreview()
	require.Eventually(t, h.updates(1), wait, tick)

	h.edit(t, "about", "description", "second")
	close(gate)
	require.Eventually(t, func() bool { return len(h.sink.Previews()) == 1 }, wait, tick)
	assert.True(t, h.sync.State().Dirty)

	h.clock.Advance(DefaultDebounce)
	require.Eventually(t, h.updates(2), wait, tick)
	require.Eventually(t, func() bool { return !h.sync.State().Dirty }, wait, tick)
	assert.Equal(t, "second", h.srv.Calls("/update_section")[1].Form.Get("description"))
}

func TestQueuedRefreshReplaysOnceWithLatest(t *testing.T) {
	h := newHarness(t, "about", Options{})
	gate := make(chan struct{})
	h.srv.SetGate(gate)

	h.edit(t, "about", "description", "v1")
	h.sync.RefreshPreview()
	require.Eventually(t, h.updates(1), wait, tick)

	h.edit(t, "about", "description", "v2")
	h.sync.RefreshPreview()
	h.edit(t, "about", "description", "v3")
	h.sync.RefreshPreview()
	close(gate)

	require.Eventually(t, h.updates(2), wait, tick)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 2 }, 100*time.Millisecond, tick)
	assert.Equal(t, "v3", h.srv.Calls("/update_section")[1].Form.Get("description"))
	require.Eventually(t, func() bool { return !h.sync.State().Dirty }, wait, tick)
}

func TestPreviewFailureKeepsDirty(t *testing.T) {
	h := newHarness(t, "about", Options{})
	h.srv.SetUpdateFunc(func(string, url.Values) (int, any) {
		return http.StatusOK, api.SectionUpdate{Success: false, Error: "invalid field"}
	})
	h.edit(t, "about", "description", "x")
	h.clock.Advance(DefaultDebounce)

	require.Eventually(t, h.updates(1), wait, tick)
	require.Eventually(t, func() bool { return len(h.sink.Notes()) == 1 }, wait, tick)
	n := h.sink.Notes()[0]
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Error updating preview: invalid field", n.Text)
	assert.Empty(t, h.sink.Previews())
	assert.True(t, h.sync.State().Dirty)
}

func TestDebounceDuringSaveWaitsForIt(t *testing.T) {
	h := newHarness(t, "about", Options{})
	gate := make(chan struct{})
	h.srv.SetGate(gate)
	h.edit(t, "about", "description", "one")

	saved := h.sync.SaveSection(true)
	require.Eventually(t, h.updates(1), wait, tick)
	h.edit(t, "about", "description", "two")
	h.clock.Advance(DefaultDebounce)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 1 }, 100*time.Millisecond, tick)

	close(gate)
	_, err := saved.Wait(context.Background())
	require.NoError(t, err)
	require.Eventually(t, h.updates(2), wait, tick)
	assert.Equal(t, "two", h.srv.Calls("/update_section")[1].Form.Get("description"))
	require.Eventually(t, func() bool { return !h.sync.State().Dirty }, wait, tick)
	require.Never(t, func() bool { return h.srv.UpdateCount() > 2 }, 50*time.Millisecond, tick)
}

func TestSaveNotifiesAndRecords(t *testing.T) {
	h := newHarness(t, "project_info", Options{})
	h.edit(t, "project_info", "name", "DocGen")

	res, err := h.sync.SaveSection(false).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "project_info", res.Section)
	assert.Contains(t, res.Markdown, "# DocGen")

	require.Eventually(t, func() bool { return len(h.sink.Notes()) == 1 }, wait, tick)
	assert.Equal(t, Notification{Level: LevelSuccess, Text: "Section saved successfully!"}, h.sink.Notes()[0])
	require.Eventually(t, func() bool { return h.sink.Statuses() == 1 }, wait, tick)

	st := h.sync.State()
	assert.False(t, st.Dirty)
	assert.Equal(t, "DocGen", st.LastSaved.Get("name"))
	assert.Equal(t, 1, h.journal.Len())
}

func TestSilentSaveIsQuiet(t *testing.T) {
	h := newHarness(t, "project_info", Options{})
	h.edit(t, "project_info", "name", "DocGen")

	_, err := h.sync.SaveSection(true).Wait(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.sink.Previews()) == 1 }, wait, tick)
	assert.Empty(t, h.sink.Notes())
}

func TestSaveApplicationErrorKeepsDirty(t *testing.T) {
	h := newHarness(t, "about", Options{})
	h.srv.SetUpdateFunc(func(string, url.Values) (int, any) {
		return http.StatusOK, api.SectionUpdate{Success: false, Error: "invalid field"}
	})
	h.edit(t, "about", "description", "x")

	_, err := h.sync.SaveSection(false).Wait(context.Background())
	require.True(t, remote.IsApplication(err))
	require.Eventually(t, func() bool { return len(h.sink.Notes()) == 1 }, wait, tick)
	n := h.sink.Notes()[0]
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Error saving: invalid field", n.Text)
	assert.True(t, h.sync.State().Dirty)
	assert.Zero(t, h.journal.Len())
}

func TestSaveNetworkError(t *testing.T) {
	h := newHarness(t, "about", Options{})
	h.srv.Close()
	h.edit(t, "about", "description", "x")

	_, err := h.sync.SaveSection(false).Wait(context.Background())
	require.True(t, remote.IsNetwork(err))
	require.Eventually(t, func() bool { return len(h.sink.Notes()) == 1 }, wait, tick)
	assert.Equal(t, "Error saving. Check your connection and try again.", h.sink.Notes()[0].Text)
}

func TestSavesDuringSaveCoalesce(t *testing.T) {
	h := newHarness(t, "about", Options{})
	gate := make(chan struct{})
	h.srv.SetGate(gate)
	h.edit(t, "about", "description", "one")

	first := h.sync.SaveSection(true)
	require.Eventually(t, h.updates(1), wait, tick)
	h.edit(t, "about", "description", "two")
	second := h.sync.SaveSection(true)
	third := h.sync.SaveSection(false)
	close(gate)

	ctx := context.Background()
	_, err := first.Wait(ctx)
	require.NoError(t, err)
	r2, err := second.Wait(ctx)
	require.NoError(t, err)
	r3, err := third.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, r2, r3)
	assert.Equal(t, 2, h.srv.UpdateCount())
	assert.Equal(t, "two", h.srv.Calls("/update_section")[1].Form.Get("description"))
	require.Eventually(t, func() bool { return len(h.sink.Notes()) == 1 }, wait, tick)
}

func TestSectionChangeFailsQueuedSaves(t *testing.T) {
	h := newHarness(t, "about", Options{})
	gate := make(chan struct{})
	h.srv.SetGate(gate)
	h.edit(t, "about", "description", "x")

	first := h.sync.SaveSection(false)
	require.Eventually(t, h.updates(1), wait, tick)
	queued := h.sync.SaveSection(false)
	h.sync.SetSection("usage")

	_, err := queued.Wait(context.Background())
	require.ErrorIs(t, err, ErrSectionChanged)
	close(gate)
	_, err = first.Wait(context.Background())
	require.NoError(t, err)
	require.Never(t, func() bool { return len(h.sink.Notes()) > 0 }, 50*time.Millisecond, tick)
}

type blockingUpload struct {
	*remote.Client
	release chan struct{}
}

func (b *blockingUpload) UploadStructure(ctx context.Context, filename string, r io.Reader) (string, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return b.Client.UploadStructure(ctx, filename, r)
}

func TestUploadGuardAndStructure(t *testing.T) {
	srv := remotetest.New(t)
	srv.Structure = "app/\n  main.go\n"
	client, err := remote.New(context.Background(), remote.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	collab := &blockingUpload{Client: client, release: make(chan struct{})}
	h := newHarnessWith(t, srv, client, collab, StructureSection, Options{})
	ctx := context.Background()

	first := h.sync.UploadStructure(ctx, "app.zip", strings.NewReader("zip"))
	require.Eventually(t, func() bool { return h.sync.State().Uploading }, wait, tick)

	_, err = h.sync.UploadStructure(ctx, "app.zip", strings.NewReader("zip")).Wait(ctx)
	require.ErrorIs(t, err, ErrUploadInProgress)

	close(collab.release)
	structure, err := first.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "app/\n  main.go\n", structure)

	v, _ := h.forms.Get(StructureSection)
	assert.Equal(t, structure, v.Get(StructureField))
	require.Eventually(t, h.updates(1), wait, tick)
	assert.Equal(t, structure, srv.Calls("/update_section")[0].Form.Get(StructureField))
	assert.False(t, h.sync.State().Uploading)
}

func TestUploadAfterSectionChangeLeavesNewSectionClean(t *testing.T) {
	srv := remotetest.New(t)
	srv.Structure = "svc/\n"
	client, err := remote.New(context.Background(), remote.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	collab := &blockingUpload{Client: client, release: make(chan struct{})}
	h := newHarnessWith(t, srv, client, collab, StructureSection, Options{})
	ctx := context.Background()

	fut := h.sync.UploadStructure(ctx, "svc.tar.gz", strings.NewReader("tgz"))
	require.Eventually(t, func() bool { return h.sync.State().Uploading }, wait, tick)
	h.sync.SetSection("about")
	close(collab.release)

	structure, err := fut.Wait(ctx)
	require.NoError(t, err)
	v, _ := h.forms.Get(StructureSection)
	assert.Equal(t, structure, v.Get(StructureField))

	require.Never(t, func() bool { return h.srv.UpdateCount() > 0 }, 100*time.Millisecond, tick)
	assert.Empty(t, h.sink.Previews())
	st := h.sync.State()
	assert.Equal(t, "about", st.Section)
	assert.False(t, st.Dirty)
	assert.False(t, st.Uploading)
}

func TestExportSavesDirtySectionFirst(t *testing.T) {
	h := newHarness(t, "project_info", Options{})
	ctx := context.Background()

	exp, err := h.sync.Export(ctx).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "README.md", exp.Filename)
	assert.Zero(t, h.srv.UpdateCount())

	h.edit(t, "project_info", "name", "Doc Gen")
	exp, err = h.sync.Export(ctx).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Doc_Gen.md", exp.Filename)
	assert.Contains(t, exp.Markdown, "# Doc Gen")
	assert.Equal(t, 1, h.srv.UpdateCount())
	require.Never(t, func() bool { return len(h.sink.Notes()) > 0 }, 50*time.Millisecond, tick)
}

func TestClosedSynchronizer(t *testing.T) {
	h := newHarness(t, "about", Options{})
	require.NoError(t, h.sync.Close())
	require.NoError(t, h.sync.Close())

	_, err := h.sync.SaveSection(false).Wait(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	h.sync.OnFieldChanged()
	assert.Equal(t, State{}, h.sync.State())
}
