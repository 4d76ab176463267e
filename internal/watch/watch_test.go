package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changes struct {
	mu  sync.Mutex
	got []string
}

func (c *changes) add(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, string(b))
}

func (c *changes) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestWatcherReportsSettledContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "about.docgen.md")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o600))

	var c changes
	w, err := New(path, 50*time.Millisecond, c.add, nil)
	require.NoError(t, err)
	defer w.Close()

	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, os.WriteFile(path, []byte(v), 0o600))
	}
	require.Eventually(t, func() bool {
		got := c.list()
		return len(got) > 0 && got[len(got)-1] == "v3"
	}, 2*time.Second, 10*time.Millisecond)

	n := len(c.list())
	require.NoError(t, os.WriteFile(path, []byte("v3"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, c.list(), n)
}

func TestWatcherFollowsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usage.docgen.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	var c changes
	w, err := New(path, 20*time.Millisecond, c.add, nil)
	require.NoError(t, err)
	defer w.Close()

	tmp := filepath.Join(dir, "usage.docgen.md.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		got := c.list()
		return len(got) == 1 && got[0] == "new"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFlushSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.md")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0o600))
	var c changes
	w, err := New(path, 0, c.add, nil)
	require.NoError(t, err)
	defer w.Close()

	w.Flush()
	assert.Empty(t, c.list())
	assert.Equal(t, path, w.Path())
}
