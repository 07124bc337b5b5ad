package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/mlbedge/internal/domain/model"
)

const defaultCapacity = 200

// ring is a fixed-capacity FIFO that overwrites its oldest element.
type ring[T any] struct {
	buf  []T
	head int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	idx := (r.head + r.size) % len(r.buf)
	if r.size == len(r.buf) {
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[idx] = v
	r.size++
}

// newest returns up to limit items, newest first. limit 0 means all.
func (r *ring[T]) newest(limit int) []T {
	n := r.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(r.head+r.size-1-i)%len(r.buf)])
	}
	return out
}

// MemoryStore is the in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int

	updates  *ring[model.UpdateEntry]
	changes  *ring[model.StatChange]
	analyses *ring[model.AnalysisResult]
	teams    map[int]model.TeamSeasonStats
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.updates = newRing[model.UpdateEntry](s.capacity)
	s.changes = newRing[model.StatChange](s.capacity)
	s.analyses = newRing[model.AnalysisResult](s.capacity)
	s.teams = make(map[int]model.TeamSeasonStats)
	return s
}

func (s *MemoryStore) AddUpdate(ctx context.Context, u model.UpdateEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.updates.push(u)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) AddStatChanges(ctx context.Context, changes []model.StatChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for _, c := range changes {
		s.changes.push(c)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SaveAnalysis(ctx context.Context, a model.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.analyses.push(a)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Analysis(ctx context.Context, id string) (model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return model.AnalysisResult{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.analyses.newest(0) {
		if a.ID == id {
			return a, nil
		}
	}
	return model.AnalysisResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *MemoryStore) Updates(ctx context.Context, limit int) ([]model.UpdateEntry, error) {
	if err := check(ctx, limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates.newest(limit), nil
}

func (s *MemoryStore) StatChanges(ctx context.Context, limit int) ([]model.StatChange, error) {
	if err := check(ctx, limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changes.newest(limit), nil
}

func (s *MemoryStore) Analyses(ctx context.Context, limit int) ([]model.AnalysisResult, error) {
	if err := check(ctx, limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyses.newest(limit), nil
}

func (s *MemoryStore) SwapTeamStats(_ context.Context, current model.TeamSeasonStats) (model.TeamSeasonStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.teams[current.Team.ID]
	s.teams[current.Team.ID] = current
	return prev, ok
}

func (s *MemoryStore) Count(_ context.Context) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Updates:     s.updates.size,
		StatChanges: s.changes.size,
		Analyses:    s.analyses.size,
		Teams:       len(s.teams),
	}
}

func check(ctx context.Context, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}
