package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/profile-scraper/internal/types"
)

// Store is a profile store. Upserts are keyed by Profile.Key.
type Store interface {
	UpsertProfile(ctx context.Context, p *types.Profile) (*ProfileRecord, error)
	GetProfileByKey(ctx context.Context, key string) (*ProfileRecord, error)
	ListProfiles(ctx context.Context, f ProfileFilters) ([]ProfileRecord, error)
	DeleteProfile(ctx context.Context, key string) error
	Close()
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Persister adapts a Store to the single-method sink used by the bulk controller and the
// file pipeline.
type Persister struct {
	Store Store
}

// Persist upserts p.
func (s Persister) Persist(ctx context.Context, p *types.Profile) error {
	_, err := s.Store.UpsertProfile(ctx, p)
	return err
}

// Open picks a store: PostgreSQL when databaseURL is set, else SQLite when sqlitePath is
// set, else memory. The PostgreSQL schema is created if missing.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	switch {
	case databaseURL != "":
		pg, err := Connect(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		log.Debug().Msg("using postgres profile store")
		return pg, nil
	case sqlitePath != "":
		s, err := OpenSQLite(ctx, sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Debug().Str("path", sqlitePath).Msg("using sqlite profile store")
		return s, nil
	default:
		log.Debug().Msg("using in-memory profile store")
		return NewMemoryStore(), nil
	}
}
