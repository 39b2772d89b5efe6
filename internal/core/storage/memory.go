package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stageline-lab/stageline/internal/crm"
)

// MemoryStore is an in-memory implementation of CompanyStore.
// Useful for testing and development.
type MemoryStore struct {
	mu          sync.RWMutex
	nextCompany int64
	nextEvent   int64
	companies   map[int64]crm.Company
	events      map[int64][]crm.Event
	transitions map[int64][]crm.StageTransition
	nowFn       func() time.Time
}

// NewMemoryStore creates an empty in-memory store on the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies:   make(map[int64]crm.Company),
		events:      make(map[int64][]crm.Event),
		transitions: make(map[int64][]crm.StageTransition),
		nowFn:       time.Now,
	}
}

func (s *MemoryStore) CreateCompany(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCompany++
	now := s.nowFn()
	s.companies[s.nextCompany] = crm.Company{
		ID:        s.nextCompany,
		Name:      name,
		Stage:     crm.StageIce,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.nextCompany, nil
}

func (s *MemoryStore) GetCompany(ctx context.Context, id int64) (*crm.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Events = s.sortedEvents(id)
	return &c, nil
}

func (s *MemoryStore) ListCompanies(ctx context.Context) ([]*crm.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*crm.Company, 0, len(s.companies))
	for _, c := range s.companies {
		copy := c
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListCompaniesByStage(ctx context.Context, stage crm.Stage) ([]*crm.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*crm.Company
	for id, c := range s.companies {
		if c.Stage != stage {
			continue
		}
		copy := c
		copy.Events = s.sortedEvents(id)
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, companyID int64) ([]crm.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.companies[companyID]; !ok {
		return nil, ErrNotFound
	}
	return s.sortedEvents(companyID), nil
}

func (s *MemoryStore) AppendEvent(ctx context.Context, companyID int64, t crm.EventType, data map[string]any) (int64, error) {
	return s.AppendEventAt(ctx, companyID, t, data, s.nowFn())
}

// AppendEventAt appends an event with an explicit creation time. Used by tests
// and backfills that need historical timestamps; the HTTP path never does.
func (s *MemoryStore) AppendEventAt(ctx context.Context, companyID int64, t crm.EventType, data map[string]any, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[companyID]; !ok {
		return 0, ErrNotFound
	}

	if data == nil {
		data = map[string]any{}
	}
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}

	s.nextEvent++
	s.events[companyID] = append(s.events[companyID], crm.Event{
		ID:        s.nextEvent,
		CompanyID: companyID,
		Type:      t,
		Data:      copied,
		CreatedAt: at,
	})
	return s.nextEvent, nil
}

func (s *MemoryStore) AdvanceStage(ctx context.Context, companyID int64, from, to crm.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[companyID]
	if !ok {
		return ErrNotFound
	}
	if c.Stage != from {
		return ErrStageConflict
	}

	now := s.nowFn()
	s.transitions[companyID] = append(s.transitions[companyID], crm.StageTransition{
		CompanyID: companyID,
		FromStage: from,
		ToStage:   to,
		CreatedAt: now,
	})
	c.Stage = to
	c.UpdatedAt = now
	s.companies[companyID] = c
	return nil
}

// Transitions returns a copy of the company's transition audit trail.
// Not part of CompanyStore; tests use it to assert on recorded advances.
func (s *MemoryStore) Transitions(companyID int64) []crm.StageTransition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crm.StageTransition, len(s.transitions[companyID]))
	copy(out, s.transitions[companyID])
	return out
}

// sortedEvents returns a copy of the log in (created_at, id) order.
// Callers must hold at least the read lock.
func (s *MemoryStore) sortedEvents(companyID int64) []crm.Event {
	events := make([]crm.Event, len(s.events[companyID]))
	copy(events, s.events[companyID])
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events
}
