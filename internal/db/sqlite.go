package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/profile-scraper/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id          TEXT PRIMARY KEY,
	key         TEXT NOT NULL UNIQUE,
	profile_url TEXT NOT NULL DEFAULT '',
	full_name   TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	data        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS profiles_company_idx ON profiles (company);
`

// SQLiteStore keeps profiles in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:" gives a
// throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; SQLite serializes writes anyway and :memory: is per-connection.
	conn.SetMaxOpenConns(1)
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// UpsertProfile inserts p or updates the record with the same key, keeping id and created_at.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *types.Profile) (*ProfileRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	now := formatTime(s.now())
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, key, profile_url, full_name, company, title, source, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
			profile_url = excluded.profile_url,
			full_name = excluded.full_name,
			company = excluded.company,
			title = excluded.title,
			source = excluded.source,
			data = excluded.data,
			updated_at = excluded.updated_at
		 RETURNING `+profileColumns,
		uuid.NewString(), p.Key(), p.ProfileURL, p.FullName, p.Company, p.Title, string(p.Source), string(data), now, now,
	)
	rec, err := scanSQLite(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return rec, nil
}

// GetProfileByKey returns the record stored under key, or nil.
func (s *SQLiteStore) GetProfileByKey(ctx context.Context, key string) (*ProfileRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE key = ?`, key)
	rec, err := scanSQLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return rec, nil
}

// ListProfiles returns records, most recently updated first.
func (s *SQLiteStore) ListProfiles(ctx context.Context, f ProfileFilters) ([]ProfileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE (?1 = '' OR lower(company) LIKE '%' || lower(?1) || '%')
		   AND (?2 = '' OR source = ?2)
		 ORDER BY updated_at DESC, key
		 LIMIT ?3 OFFSET ?4`,
		f.Company, string(f.Source), f.limit(), f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileRecord
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// DeleteProfile removes the record stored under key.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func scanSQLite(row rowScanner) (*ProfileRecord, error) {
	var rec ProfileRecord
	var id, data, created, updated string
	if err := row.Scan(&id, &rec.Key, &data, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad stored id %q: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, err
	}
	if rec.Profile, err = decodeProfile([]byte(data)); err != nil {
		return nil, err
	}
	return &rec, nil
}

// formatTime renders t so that text order matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
