package remote_test

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/internal/remote"
	"github.com/mithrel/docgen/internal/remote/remotetest"
	"github.com/mithrel/docgen/pkg/api"
)

type memCookies struct {
	mu      sync.Mutex
	byHost  map[string][]*http.Cookie
	saveErr error
}

func (m *memCookies) LoadCookies(_ context.Context, host string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byHost[host], nil
}

func (m *memCookies) SaveCookies(_ context.Context, host string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byHost == nil {
		m.byHost = make(map[string][]*http.Cookie)
	}
	m.byHost[host] = cookies
	return m.saveErr
}

func newClient(t *testing.T, srv *remotetest.Server, cookies remote.CookieStore) *remote.Client {
	t.Helper()
	c, err := remote.New(context.Background(), remote.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Cookies: cookies})
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := remote.New(context.Background(), remote.Options{BaseURL: ""})
	require.Error(t, err)
	_, err = remote.New(context.Background(), remote.Options{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestUpdateSectionSuccess(t *testing.T) {
	srv := remotetest.New(t)
	c := newClient(t, srv, nil)

	snap := form.Snapshot{Section: "project_info", Fields: []api.Field{{Name: "name", Value: "DocGen"}}}
	out, err := c.UpdateSection(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Contains(t, out.Markdown, "# DocGen")

	calls := srv.Calls("/update_section")
	require.Len(t, calls, 1)
	require.Equal(t, "project_info", calls[0].Section)
	require.Equal(t, "DocGen", calls[0].Form.Get("name"))
}

func TestUpdateSectionApplicationError(t *testing.T) {
	srv := remotetest.New(t)
	srv.SetUpdateFunc(func(string, url.Values) (int, any) {
		return http.StatusOK, api.SectionUpdate{Success: false, Error: "invalid field"}
	})
	c := newClient(t, srv, nil)

	_, err := c.UpdateSection(context.Background(), form.Snapshot{Section: "about"})
	require.Error(t, err)
	require.True(t, remote.IsApplication(err))
	require.False(t, remote.IsNetwork(err))
	require.Equal(t, "invalid field", remote.Message(err))
}

func TestSessionExpiredIsNetworkError(t *testing.T) {
	srv := remotetest.New(t)
	srv.RequireSession = true
	c := newClient(t, srv, nil)

	_, err := c.UpdateSection(context.Background(), form.Snapshot{Section: "about"})
	require.True(t, remote.IsNetwork(err))
	var ne *remote.NetworkError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, http.StatusBadRequest, ne.Status)
	require.Equal(t, "Sessão expirada", ne.Message)

	_, err = c.Export(context.Background())
	require.ErrorAs(t, err, &ne)
	require.Equal(t, http.StatusFound, ne.Status)
}

func TestTransportFailure(t *testing.T) {
	srv := remotetest.New(t)
	c := newClient(t, srv, nil)
	srv.Close()

	_, err := c.SectionsStatus(context.Background())
	require.True(t, remote.IsNetwork(err))
}

func TestTimeout(t *testing.T) {
	srv := remotetest.New(t)
	gate := make(chan struct{})
	srv.SetGate(gate)
	defer close(gate)

	c, err := remote.New(context.Background(), remote.Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.UpdateSection(context.Background(), form.Snapshot{Section: "about"})
	require.True(t, remote.IsNetwork(err))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetupPersistsSessionCookie(t *testing.T) {
	srv := remotetest.New(t)
	srv.RequireSession = true
	jar := &memCookies{}
	c := newClient(t, srv, jar)

	require.Error(t, c.Setup(context.Background(), "nope", false))
	require.NoError(t, c.Setup(context.Background(), api.ProjectBackend, true))
	require.Equal(t, api.ProjectBackend, srv.ProjectType())

	// A fresh client restores the session from the store.
	c2 := newClient(t, srv, jar)
	exp, err := c2.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Example_backend.md", exp.Filename)
	require.Contains(t, exp.Markdown, "# Example backend")
}

func TestSectionsStatusAndTheme(t *testing.T) {
	srv := remotetest.New(t)
	c := newClient(t, srv, nil)
	ctx := context.Background()

	_, err := c.UpdateSection(ctx, form.Snapshot{Section: "about", Fields: []api.Field{{Name: "description", Value: "x"}}})
	require.NoError(t, err)
	_, err = c.UpdateSection(ctx, form.Snapshot{Section: "faq", Fields: []api.Field{{Name: "faq_items", Value: ""}}})
	require.NoError(t, err)

	status, err := c.SectionsStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"about": true, "faq": false}, status)

	require.NoError(t, c.UpdateTheme(ctx, "dark"))
	require.Equal(t, "dark", srv.Theme())
}

func TestUploadStructure(t *testing.T) {
	srv := remotetest.New(t)
	srv.Structure = "app/\n  cmd/\n"
	c, err := remote.New(context.Background(), remote.Options{BaseURL: srv.URL, MaxUpload: 16})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.UploadStructure(ctx, "project.rar", strings.NewReader("x"))
	require.ErrorIs(t, err, remote.ErrUnsupportedArchive)

	_, err = c.UploadStructure(ctx, "project.zip", bytes.NewReader(make([]byte, 17)))
	require.ErrorIs(t, err, remote.ErrTooLarge)

	structure, err := c.UploadStructure(ctx, "/tmp/project.tar.gz", strings.NewReader("archive"))
	require.NoError(t, err)
	require.Equal(t, "app/\n  cmd/\n", structure)
	calls := srv.Calls("/upload_structure")
	require.Len(t, calls, 1)
	require.Equal(t, "project.tar.gz", calls[0].Form.Get("filename"))
}

func TestDownloadAndReset(t *testing.T) {
	srv := remotetest.New(t)
	c := newClient(t, srv, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	name, err := c.Download(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, "README.md", name)
	require.Contains(t, buf.String(), "# README")

	require.NoError(t, c.Reset(ctx))
	require.Len(t, srv.Calls("/reset"), 1)
}

func TestAllowedArchive(t *testing.T) {
	require.True(t, remote.AllowedArchive("a.ZIP"))
	require.True(t, remote.AllowedArchive("a.tar.gz"))
	require.True(t, remote.AllowedArchive("a.tgz"))
	require.False(t, remote.AllowedArchive("a.tar"))
}
