package db

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docgen/pkg/api"
)

func openStores(t *testing.T) map[string]*Store {
	t.Helper()
	ctx := context.Background()
	sq, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	mem, err := Open(ctx, "mem://")
	require.NoError(t, err)
	return map[string]*Store{"sqlite": sq, "mem": mem}
}

func TestDrafts(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := st.Drafts

			_, err := repo.GetDraft(ctx, "about")
			require.ErrorIs(t, err, ErrNotFound)

			saved := time.Now().UTC().Truncate(time.Second)
			fields := []api.Field{{Name: "description", Value: "x"}, {Name: "platform_list[]", Value: "iOS"}}
			d := api.Draft{Section: "about", Fields: fields, Fingerprint: api.Fingerprint("about", fields), SavedAt: saved}
			require.NoError(t, repo.PutDraft(ctx, d))

			got, err := repo.GetDraft(ctx, "about")
			require.NoError(t, err)
			assert.Equal(t, fields, got.Fields)
			assert.Equal(t, d.Fingerprint, got.Fingerprint)
			assert.True(t, saved.Equal(got.SavedAt))

			d.Fields = fields[:1]
			require.NoError(t, repo.PutDraft(ctx, d))
			require.NoError(t, repo.PutDraft(ctx, api.Draft{Section: "faq", Fingerprint: "f", SavedAt: saved}))

			list, err := repo.ListDrafts(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "about", list[0].Section)
			assert.Len(t, list[0].Fields, 1)

			n, err := repo.DeleteDrafts(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestCookies(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := st.Cookies

			got, err := repo.LoadCookies(ctx, "127.0.0.1:5000")
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, repo.SaveCookies(ctx, "127.0.0.1:5000", []*http.Cookie{{Name: "session", Value: "a"}}))
			require.NoError(t, repo.SaveCookies(ctx, "127.0.0.1:5000", []*http.Cookie{{Name: "session", Value: "b"}}))
			require.NoError(t, repo.SaveCookies(ctx, "other:80", []*http.Cookie{{Name: "x", Value: "y"}}))

			got, err = repo.LoadCookies(ctx, "127.0.0.1:5000")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "b", got[0].Value)
		})
	}
}

func TestWithTxNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
	assert.Nil(t, TxFromContext(ctx))
}
