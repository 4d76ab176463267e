package db

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/mithrel/docgen/pkg/api"
)

type memStore struct {
	mu      sync.RWMutex
	drafts  map[string]api.Draft
	cookies map[string][]*http.Cookie
}

func newMemStore() *memStore {
	return &memStore{drafts: make(map[string]api.Draft), cookies: make(map[string][]*http.Cookie)}
}

func (m *memStore) PutDraft(ctx context.Context, d api.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Fields = append([]api.Field(nil), d.Fields...)
	m.drafts[d.Section] = d
	return nil
}

func (m *memStore) GetDraft(ctx context.Context, section string) (api.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[section]
	if !ok {
		return api.Draft{}, ErrNotFound
	}
	return d, nil
}

func (m *memStore) ListDrafts(ctx context.Context) ([]api.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Draft, 0, len(m.drafts))
	for _, d := range m.drafts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out, nil
}

func (m *memStore) DeleteDrafts(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.drafts))
	m.drafts = make(map[string]api.Draft)
	return n, nil
}

func (m *memStore) LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Cookie(nil), m.cookies[host]...), nil
}

func (m *memStore) SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[host] = append([]*http.Cookie(nil), cookies...)
	return nil
}
