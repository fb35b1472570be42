package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/profile-scraper/internal/types"
)

const profileColumns = `id, key, data, created_at, updated_at`

// UpsertProfile inserts p or updates the record with the same key. An update refreshes
// updated_at and keeps the record's id and created_at.
func (db *DB) UpsertProfile(ctx context.Context, p *types.Profile) (*ProfileRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	row := db.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, key, profile_url, full_name, company, title, source, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (key) DO UPDATE SET
			profile_url = EXCLUDED.profile_url,
			full_name = EXCLUDED.full_name,
			company = EXCLUDED.company,
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			data = EXCLUDED.data,
			updated_at = NOW()
		 RETURNING `+profileColumns,
		uuid.New(), p.Key(), p.ProfileURL, p.FullName, p.Company, p.Title, string(p.Source), data,
	)
	rec, err := scanPostgres(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return rec, nil
}

// GetProfileByKey returns the record stored under key, or nil when there is none.
func (db *DB) GetProfileByKey(ctx context.Context, key string) (*ProfileRecord, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE key = $1`, key)
	rec, err := scanPostgres(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return rec, nil
}

// GetProfileByURL returns the record for a profile URL, or nil.
func (db *DB) GetProfileByURL(ctx context.Context, profileURL string) (*ProfileRecord, error) {
	return db.GetProfileByKey(ctx, profileURL)
}

// ListProfiles returns records, most recently updated first.
func (db *DB) ListProfiles(ctx context.Context, f ProfileFilters) ([]ProfileRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE ($1 = '' OR company ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR source = $2)
		 ORDER BY updated_at DESC, key
		 LIMIT $3 OFFSET $4`,
		f.Company, string(f.Source), f.limit(), f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileRecord
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// DeleteProfile removes the record stored under key. Deleting a missing key is not an error.
func (db *DB) DeleteProfile(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM profiles WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func scanPostgres(row rowScanner) (*ProfileRecord, error) {
	var rec ProfileRecord
	var data []byte
	if err := row.Scan(&rec.ID, &rec.Key, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decodeProfile(data)
	if err != nil {
		return nil, err
	}
	rec.Profile = p
	return &rec, nil
}
