package memory

import (
	"context"
	"sort"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
)

func (s *Store) GetTrail(ctx context.Context, orderID string) ([]domain.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := make([]domain.AuditRecord, len(s.audit[orderID]))
	for i, r := range s.audit[orderID] {
		r.Metadata = copyMetadata(r.Metadata)
		trail[i] = r
	}
	// Stable: records with equal timestamps keep insertion order.
	sort.SliceStable(trail, func(i, j int) bool {
		return trail[i].Timestamp.Before(trail[j].Timestamp)
	})
	return trail, nil
}

func (s *Store) ListByListing(ctx context.Context, listingID string) ([]*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Review
	for _, r := range s.reviews {
		if r.ListingID == listingID {
			review := *r
			out = append(out, &review)
		}
	}
	return out, nil
}

func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, e := range s.outbox {
		if e.PublishedAt != nil {
			continue
		}
		ev := *e
		out = append(out, &ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, e := range s.outbox {
		if _, ok := set[e.ID]; ok && e.PublishedAt == nil {
			at := now
			e.PublishedAt = &at
		}
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.outbox {
		if e.ID == id {
			e.Attempts++
			e.LastError = reason
		}
	}
	return nil
}
