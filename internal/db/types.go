package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/profile-scraper/internal/types"
)

// ProfileRecord is a stored profile.
type ProfileRecord struct {
	ID        uuid.UUID      `json:"id"`
	Key       string         `json:"key"`
	Profile   *types.Profile `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProfileFilters narrows ListProfiles.
type ProfileFilters struct {
	// Company matches case-insensitively as a substring.
	Company string
	Source  types.Source
	Limit   int
	Offset  int
}

// DefaultListLimit applies when ProfileFilters.Limit is not positive.
const DefaultListLimit = 100

func (f ProfileFilters) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func decodeProfile(data []byte) (*types.Profile, error) {
	var p types.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &p, nil
}
