package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, translate(err, nil, "order %s", orderID)
	}
	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	created := order.Clone()
	if created.Version == 0 {
		created.Version = 1
	}
	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMOrder(created)).Error; err != nil {
		return nil, translate(err, domain.ErrDuplicateOrder, "order %s", order.ID)
	}
	return created, nil
}

func (r *DefaultOrderRepository) CompareAndSwap(ctx context.Context, orderID string, expectedVersion int64, next *domain.Order) (*domain.Order, error) {
	var updated *domain.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = swapOrder(tx, orderID, expectedVersion, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Commit writes the order swap, case change, review, audit record and outbox event in one transaction.
func (r *DefaultOrderRepository) Commit(ctx context.Context, c *domain.Commit) (*domain.Order, error) {
	var updated *domain.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = swapOrder(tx, c.OrderID, c.ExpectedVersion, c.Next)
		if err != nil {
			return err
		}

		if c.Case != nil {
			if c.Case.Insert {
				if err := insertCase(tx, c.Case.Case, c.Case.Entries); err != nil {
					return err
				}
			} else if _, err := updateCase(tx, c.Case.Case, c.Case.ExpectedVersion, c.Case.Entries); err != nil {
				return err
			}
		}

		if c.Review != nil {
			if err := tx.Create(mappers.ToGORMReview(c.Review)).Error; err != nil {
				return translate(err, domain.ErrReviewExists, "review for order %s", c.OrderID)
			}
		}

		record := c.Audit
		record.Seq = updated.Version
		if err := tx.Create(mappers.ToGORMAuditRecord(&record)).Error; err != nil {
			return translate(err, domain.ErrVersionConflict, "audit for order %s", c.OrderID)
		}

		payload, err := json.Marshal(c.Event)
		if err != nil {
			return fmt.Errorf("marshal event for order %s: %w", c.OrderID, err)
		}
		event := &models.OutboxEventModel{
			ID: 			c.Event.EventID,
			AggregateID: 	c.OrderID,
			EventType: 		domain.EventTypeOrderTransitioned,
			Payload: 		payload,
			CreatedAt: 		c.Event.OccurredAt,
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("outbox event for order %s: %w", c.OrderID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func swapOrder(tx *gorm.DB, orderID string, expectedVersion int64, next *domain.Order) (*domain.Order, error) {
	updated := next.Clone()
	updated.ID = orderID
	updated.Version = expectedVersion + 1

	res := tx.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", orderID, expectedVersion).
		Updates(map[string]any{
			"status": 		updated.Status.String(),
			"reviewed": 	updated.Reviewed,
			"delivered_at": updated.DeliveredAt,
			"updated_at": 	updated.UpdatedAt,
			"version": 		updated.Version,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("swap order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 1 {
		return updated, nil
	}

	var count int64
	if err := tx.Model(&models.OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("swap order %s: %w", orderID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return nil, fmt.Errorf("order %s at version %d: %w", orderID, expectedVersion, domain.ErrVersionConflict)
}

func (r *DefaultOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	filter.Normalize()

	safeSortBy := "created_at"
	switch filter.SortBy {
	case "updated_at":
		safeSortBy = "updated_at"
	case "total":
		safeSortBy = "quantity * unit_price"
	case "status":
		safeSortBy = "status"
	}
	safeSortOrder := "DESC"
	if strings.ToUpper(filter.SortOrder) == "ASC" {
		safeSortOrder = "ASC"
	}

	query := r.DB.WithContext(ctx).Model(&models.OrderModel{})
	if filter.BuyerID != "" {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.ListingID != "" {
		query = query.Where("listing_id = ?", filter.ListingID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		query = query.Where("status IN ?", statuses)
	}
	if !filter.DateFrom.IsZero() {
		query = query.Where("created_at >= ?", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query = query.Where("created_at <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.OrderModel
	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Order(fmt.Sprintf("%s %s, id %s", safeSortBy, safeSortOrder, safeSortOrder)).
		Offset(offset).
		Limit(filter.Limit).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}
	return orders, total, nil
}
