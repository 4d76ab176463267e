package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/docgen/pkg/api"
)

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) PutDraft(ctx context.Context, d api.Draft) error {
	fieldsJSON, err := json.Marshal(d.Fields)
	if err != nil {
		return err
	}
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now()
	}
	_, err = conn(ctx, s.db).ExecContext(ctx, `INSERT INTO drafts(section, fields, fingerprint, saved_at) VALUES(?,?,?,?)
ON CONFLICT(section) DO UPDATE SET fields=excluded.fields, fingerprint=excluded.fingerprint, saved_at=excluded.saved_at`,
		d.Section, string(fieldsJSON), d.Fingerprint, d.SavedAt.UTC())
	return err
}

func (s *sqliteStore) GetDraft(ctx context.Context, section string) (api.Draft, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT section, fields, fingerprint, saved_at FROM drafts WHERE section=?`, section)
	d, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return api.Draft{}, ErrNotFound
	}
	return d, err
}

func (s *sqliteStore) ListDrafts(ctx context.Context) ([]api.Draft, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, `SELECT section, fields, fingerprint, saved_at FROM drafts ORDER BY section`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteDrafts(ctx context.Context) (int64, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM drafts`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface{ Scan(dest ...any) error }

func scanDraft(sc scanner) (api.Draft, error) {
	var d api.Draft
	var fieldsJSON string
	if err := sc.Scan(&d.Section, &fieldsJSON, &d.Fingerprint, &d.SavedAt); err != nil {
		return api.Draft{}, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &d.Fields); err != nil {
		return api.Draft{}, err
	}
	return d, nil
}

func (s *sqliteStore) LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, `SELECT name, value FROM cookies WHERE host=? ORDER BY name`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCookies replaces every cookie stored for host.
func (s *sqliteStore) SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	ctx = WithTx(ctx, tx)
	if _, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM cookies WHERE host=?`, host); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, c := range cookies {
		if _, err := conn(ctx, s.db).ExecContext(ctx, `INSERT INTO cookies(host, name, value, updated_at) VALUES(?,?,?,?)`, host, c.Name, c.Value, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BeginTx lets callers group repository writes.
func (s *sqliteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// openSQLite connects to a SQLite database using modernc.org/sqlite driver and ensures schema exists.
func openSQLite(ctx context.Context, dsn string) (*Store, io.Closer, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	// set WAL mode
	if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if _, err := dbh.ExecContext(ctx, `PRAGMA busy_timeout=5000;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	s := &sqliteStore{db: dbh}
	return &Store{Drafts: s, Cookies: s}, dbh, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS drafts (
  section TEXT PRIMARY KEY,
  fields TEXT NOT NULL,
  fingerprint TEXT NOT NULL,
  saved_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS cookies (
  host TEXT NOT NULL,
  name TEXT NOT NULL,
  value TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  PRIMARY KEY(host, name)
);
`)
	return err
}
