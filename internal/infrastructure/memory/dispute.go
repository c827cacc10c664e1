package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
)

func (s *Store) GetCase(ctx context.Context, caseID string) (*domain.DisputeCase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseID, domain.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *Store) GetLatestByOrder(ctx context.Context, orderID string) (*domain.DisputeCase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.caseIDs[orderID]
	if len(ids) == 0 {
		return nil, fmt.Errorf("case for order %s: %w", orderID, domain.ErrNotFound)
	}
	return s.cases[ids[len(ids)-1]].Clone(), nil
}

func (s *Store) GetActiveByOrder(ctx context.Context, orderID string) (*domain.DisputeCase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.caseIDs[orderID] {
		if c := s.cases[id]; c.IsActive() {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("active case for order %s: %w", orderID, domain.ErrNotFound)
}

func (s *Store) ListCases(ctx context.Context, filter domain.CaseFilter) ([]*domain.DisputeCase, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.DisputeCase
	for _, c := range s.cases {
		if matchesCase(c, filter) {
			matched = append(matched, c.Clone())
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.Limit), total, nil
}

func matchesCase(c *domain.DisputeCase, f domain.CaseFilter) bool {
	if f.OrderID != "" && c.OrderID != f.OrderID {
		return false
	}
	if f.OperatorID != "" && c.AssignedOperatorID != f.OperatorID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if c.Status == st {
			return true
		}
	}
	return false
}

func (s *Store) UpdateCase(ctx context.Context, c *domain.DisputeCase, expectedVersion int64, entries ...domain.TimelineEntry) (*domain.DisputeCase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	change := &domain.CaseChange{Case: c, ExpectedVersion: expectedVersion, Entries: entries}
	if err := s.checkCaseLocked(change); err != nil {
		return nil, err
	}
	s.applyCaseLocked(change)
	return s.cases[c.ID].Clone(), nil
}

func (s *Store) FindStaleOpen(ctx context.Context, openedBefore time.Time, limit int) ([]*domain.DisputeCase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []*domain.DisputeCase
	for _, c := range s.cases {
		if c.Status == domain.CaseOpen && c.CreatedAt.Before(openedBefore) {
			stale = append(stale, c.Clone())
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].CreatedAt.Before(stale[j].CreatedAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}
