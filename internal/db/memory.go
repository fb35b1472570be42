package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/profile-scraper/internal/types"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*ProfileRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*ProfileRecord), now: time.Now}
}

// UpsertProfile inserts or replaces the record with p's key, keeping id and created_at.
func (m *MemoryStore) UpsertProfile(_ context.Context, p *types.Profile) (*ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	key := p.Key()
	cp := *p
	rec, ok := m.records[key]
	if !ok {
		rec = &ProfileRecord{ID: uuid.New(), Key: key, CreatedAt: now}
		m.records[key] = rec
	}
	rec.Profile = &cp
	rec.UpdatedAt = now
	out := *rec
	return &out, nil
}

// GetProfileByKey returns the record under key, or nil.
func (m *MemoryStore) GetProfileByKey(_ context.Context, key string) (*ProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

// ListProfiles returns matching records, most recently updated first.
func (m *MemoryStore) ListProfiles(_ context.Context, f ProfileFilters) ([]ProfileRecord, error) {
	m.mu.RLock()
	var out []ProfileRecord
	company := strings.ToLower(f.Company)
	for _, rec := range m.records {
		if company != "" && !strings.Contains(strings.ToLower(rec.Profile.Company), company) {
			continue
		}
		if f.Source != "" && rec.Profile.Source != f.Source {
			continue
		}
		out = append(out, *rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Key < out[j].Key
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}

// DeleteProfile removes the record under key.
func (m *MemoryStore) DeleteProfile(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}
