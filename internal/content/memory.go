package content

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRecord struct {
	Record
	seq  int64
	meta map[string]string
}

// MemoryStore keeps records in process. Used by tests and local runs without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	seq     int64
	Now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*memoryRecord)}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MemoryStore) snapshot(r *memoryRecord) Record {
	out := r.Record
	out.Meta = maps.Clone(r.meta)
	if out.Meta == nil {
		out.Meta = map[string]string{}
	}
	return out
}

func (s *MemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.Type) == "" {
		return Record{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.seq++
	r := &memoryRecord{
		Record: Record{
			ID:        uuid.NewString(),
			Type:      rec.Type,
			Title:     rec.Title,
			Status:    normalizeStatus(rec.Status),
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq:  s.seq,
		meta: maps.Clone(rec.Meta),
	}
	if r.meta == nil {
		r.meta = map[string]string{}
	}
	s.records[r.ID] = r
	return s.snapshot(r), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.snapshot(r), nil
}

func (s *MemoryStore) List(_ context.Context, typ, status string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*memoryRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.Type != typ || (status != "" && r.Status != status) {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return newer(matched[i], matched[j]) })
	out := make([]Record, 0, len(matched))
	for _, r := range matched {
		out = append(out, s.snapshot(r))
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id, title, status string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	r.Title = title
	r.Status = normalizeStatus(status)
	r.UpdatedAt = s.now()
	return s.snapshot(r), nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = normalizeStatus(status)
	r.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Meta(_ context.Context, id string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(r.meta), nil
}

func (s *MemoryStore) GetMeta(_ context.Context, id, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return "", false, ErrNotFound
	}
	v, ok := r.meta[key]
	return v, ok, nil
}

func (s *MemoryStore) UpdateMeta(_ context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.meta[key] = value
	return nil
}

func (s *MemoryStore) DeleteMeta(_ context.Context, id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.meta, key)
	return nil
}

func (s *MemoryStore) FindMaxMetaAtMost(_ context.Context, typ, status, key string, n int64) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best    *memoryRecord
		bestVal int64
	)
	for _, r := range s.records {
		if r.Type != typ || r.Status != status {
			continue
		}
		raw, ok := r.meta[key]
		if !ok {
			continue
		}
		v := NumericValue(raw)
		if v > n {
			continue
		}
		if best == nil || v > bestVal || (v == bestVal && newer(r, best)) {
			best, bestVal = r, v
		}
	}
	if best == nil {
		return Record{}, false, nil
	}
	return s.snapshot(best), true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func newer(a, b *memoryRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.seq > b.seq
}
