package db

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mithrel/docgen/pkg/api"
)

// DraftRepo journals the last successfully saved snapshot of each section.
type DraftRepo interface {
	PutDraft(ctx context.Context, d api.Draft) error
	GetDraft(ctx context.Context, section string) (api.Draft, error)
	ListDrafts(ctx context.Context) ([]api.Draft, error)
	DeleteDrafts(ctx context.Context) (int64, error)
}

// CookieRepo persists the collaborator session cookies per host.
type CookieRepo interface {
	LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error
}

// Store groups the repositories behind one handle.
type Store struct {
	Drafts  DraftRepo
	Cookies CookieRepo

	closer io.Closer
}

var ErrNotFound = errors.New("not found")

// Open returns a Store for a DSN: "sqlite://path" or "mem://".
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.HasPrefix(dsn, "mem://") {
		m := newMemStore()
		return &Store{Drafts: m, Cookies: m}, nil
	}
	st, closer, err := openSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	st.closer = closer
	return st, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
