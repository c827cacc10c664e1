package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
)

// Store keeps orders, cases, audit, reviews and outbox in process memory.
// All writes are serialized by one mutex, so Commit is atomic like the database transaction.
type Store struct {
	mu sync.RWMutex

	orders 	map[string]*domain.Order
	cases 	map[string]*domain.DisputeCase
	// caseIDs keeps case ids per order in creation order.
	caseIDs map[string][]string
	audit 	map[string][]domain.AuditRecord
	reviews []*domain.Review
	outbox 	[]*domain.OutboxEvent

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders: 	make(map[string]*domain.Order),
		cases: 		make(map[string]*domain.DisputeCase),
		caseIDs: 	make(map[string][]string),
		audit: 		make(map[string][]domain.AuditRecord),
		now: 		time.Now,
	}
}

func (s *Store) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return o.Clone(), nil
}

func (s *Store) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return nil, fmt.Errorf("order %s: %w", order.ID, domain.ErrDuplicateOrder)
	}
	stored := order.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.orders[order.ID] = stored
	return stored.Clone(), nil
}

func (s *Store) CompareAndSwap(ctx context.Context, orderID string, expectedVersion int64, next *domain.Order) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.swapLocked(orderID, expectedVersion, next)
}

func (s *Store) swapLocked(orderID string, expectedVersion int64, next *domain.Order) (*domain.Order, error) {
	current, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("order %s at version %d, expected %d: %w", orderID, current.Version, expectedVersion, domain.ErrVersionConflict)
	}
	stored := next.Clone()
	stored.ID = orderID
	stored.Version = expectedVersion + 1
	s.orders[orderID] = stored
	return stored.Clone(), nil
}

// Commit validates every precondition before touching state, so a failed commit changes nothing.
func (s *Store) Commit(ctx context.Context, c *domain.Commit) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(c.Event)
	if err != nil {
		return nil, fmt.Errorf("marshal lifecycle event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[c.OrderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", c.OrderID, domain.ErrNotFound)
	}
	if current.Version != c.ExpectedVersion {
		return nil, fmt.Errorf("order %s at version %d, expected %d: %w", c.OrderID, current.Version, c.ExpectedVersion, domain.ErrVersionConflict)
	}
	if c.Case != nil {
		if err := s.checkCaseLocked(c.Case); err != nil {
			return nil, err
		}
	}
	if c.Review != nil {
		for _, r := range s.reviews {
			if r.OrderID == c.Review.OrderID {
				return nil, fmt.Errorf("order %s: %w", c.OrderID, domain.ErrReviewExists)
			}
		}
	}

	updated, err := s.swapLocked(c.OrderID, c.ExpectedVersion, c.Next)
	if err != nil {
		return nil, err
	}
	if c.Case != nil {
		s.applyCaseLocked(c.Case)
	}
	if c.Review != nil {
		review := *c.Review
		s.reviews = append(s.reviews, &review)
	}

	record := c.Audit
	record.Seq = updated.Version
	record.Metadata = copyMetadata(c.Audit.Metadata)
	s.audit[c.OrderID] = append(s.audit[c.OrderID], record)

	s.outbox = append(s.outbox, &domain.OutboxEvent{
		ID: 			c.Event.EventID,
		AggregateID: 	c.OrderID,
		EventType: 		domain.EventTypeOrderTransitioned,
		Payload: 		payload,
		CreatedAt: 		s.now(),
	})
	return updated, nil
}

func (s *Store) checkCaseLocked(change *domain.CaseChange) error {
	if change.Insert {
		for _, id := range s.caseIDs[change.Case.OrderID] {
			if s.cases[id].IsActive() {
				return fmt.Errorf("order %s: %w", change.Case.OrderID, domain.ErrDisputeAlreadyOpen)
			}
		}
		return nil
	}
	stored, ok := s.cases[change.Case.ID]
	if !ok {
		return fmt.Errorf("case %s: %w", change.Case.ID, domain.ErrNotFound)
	}
	if stored.Version != change.ExpectedVersion {
		return fmt.Errorf("case %s at version %d, expected %d: %w", change.Case.ID, stored.Version, change.ExpectedVersion, domain.ErrVersionConflict)
	}
	return nil
}

func (s *Store) applyCaseLocked(change *domain.CaseChange) {
	next := change.Case.Clone()
	if change.Insert {
		next.Version = 1
		s.caseIDs[next.OrderID] = append(s.caseIDs[next.OrderID], next.ID)
	} else {
		stored := s.cases[next.ID]
		next.Version = stored.Version + 1
		next.Timeline = append(append([]domain.TimelineEntry(nil), stored.Timeline...), change.Entries...)
		s.cases[next.ID] = next
		return
	}
	next.Timeline = append(next.Timeline, change.Entries...)
	s.cases[next.ID] = next
}

func (s *Store) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Order
	for _, o := range s.orders {
		if matchesOrder(o, filter) {
			matched = append(matched, o.Clone())
		}
	}
	sortOrders(matched, filter.SortBy, filter.SortOrder)

	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.Limit), total, nil
}

func matchesOrder(o *domain.Order, f domain.OrderFilter) bool {
	if f.BuyerID != "" && o.BuyerID != f.BuyerID {
		return false
	}
	if f.SellerID != "" && o.SellerID != f.SellerID {
		return false
	}
	if f.ListingID != "" && o.ListingID != f.ListingID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if o.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.DateFrom.IsZero() && o.CreatedAt.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && o.CreatedAt.After(f.DateTo) {
		return false
	}
	return true
}

func sortOrders(orders []*domain.Order, sortBy, sortOrder string) {
	less := func(a, b *domain.Order) bool {
		switch sortBy {
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "total":
			return a.Total() < b.Total()
		case "status":
			return a.Status < b.Status
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	asc := sortOrder == "asc"
	sort.SliceStable(orders, func(i, j int) bool {
		if asc {
			return less(orders[i], orders[j])
		}
		return less(orders[j], orders[i])
	})
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
