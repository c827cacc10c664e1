package repository

import (
	"context"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultDisputeRepository struct {
	db *gorm.DB
}

func NewDefaultDisputeRepository(db *gorm.DB) *DefaultDisputeRepository {
	return &DefaultDisputeRepository{db: db}
}

func withTimeline(db *gorm.DB) *gorm.DB {
	return db.Preload("Timeline", func(db *gorm.DB) *gorm.DB {
		return db.Order("dispute_timeline.id ASC")
	})
}

func (r *DefaultDisputeRepository) GetCase(ctx context.Context, caseID string) (*domain.DisputeCase, error) {
	var model models.DisputeCaseModel
	if err := withTimeline(r.db.WithContext(ctx)).First(&model, "id = ?", caseID).Error; err != nil {
		return nil, translate(err, nil, "case %s", caseID)
	}
	return mappers.ToDomainDisputeCase(&model), nil
}

func (r *DefaultDisputeRepository) GetLatestByOrder(ctx context.Context, orderID string) (*domain.DisputeCase, error) {
	var model models.DisputeCaseModel
	if err := withTimeline(r.db.WithContext(ctx)).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		First(&model).Error; err != nil {
		return nil, translate(err, nil, "case for order %s", orderID)
	}
	return mappers.ToDomainDisputeCase(&model), nil
}

func (r *DefaultDisputeRepository) GetActiveByOrder(ctx context.Context, orderID string) (*domain.DisputeCase, error) {
	var model models.DisputeCaseModel
	if err := withTimeline(r.db.WithContext(ctx)).
		Where("order_id = ? AND status <> ?", orderID, domain.CaseResolved.String()).
		First(&model).Error; err != nil {
		return nil, translate(err, nil, "active case for order %s", orderID)
	}
	return mappers.ToDomainDisputeCase(&model), nil
}

func (r *DefaultDisputeRepository) ListCases(ctx context.Context, filter domain.CaseFilter) ([]*domain.DisputeCase, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.DisputeCaseModel{})
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.OperatorID != "" {
		query = query.Where("assigned_operator_id = ?", filter.OperatorID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		query = query.Where("status IN ?", statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var caseModels []models.DisputeCaseModel
	offset := (filter.Page - 1) * filter.Limit
	if err := withTimeline(query).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&caseModels).Error; err != nil {
		return nil, 0, err
	}

	cases := make([]*domain.DisputeCase, len(caseModels))
	for i := range caseModels {
		cases[i] = mappers.ToDomainDisputeCase(&caseModels[i])
	}
	return cases, total, nil
}

func (r *DefaultDisputeRepository) UpdateCase(ctx context.Context, c *domain.DisputeCase, expectedVersion int64, entries ...domain.TimelineEntry) (*domain.DisputeCase, error) {
	var updated *domain.DisputeCase
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = updateCase(tx, c, expectedVersion, entries)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *DefaultDisputeRepository) FindStaleOpen(ctx context.Context, openedBefore time.Time, limit int) ([]*domain.DisputeCase, error) {
	query := withTimeline(r.db.WithContext(ctx)).
		Where("status = ?", domain.CaseOpen.String()).
		Where("created_at < ?", openedBefore).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var caseModels []models.DisputeCaseModel
	if err := query.Find(&caseModels).Error; err != nil {
		return nil, err
	}
	cases := make([]*domain.DisputeCase, len(caseModels))
	for i := range caseModels {
		cases[i] = mappers.ToDomainDisputeCase(&caseModels[i])
	}
	return cases, nil
}

// insertCase relies on the partial unique index over active cases per order.
func insertCase(tx *gorm.DB, c *domain.DisputeCase, entries []domain.TimelineEntry) error {
	model := mappers.ToGORMDisputeCase(c)
	model.Version = 1
	if err := tx.Omit("Timeline").Create(model).Error; err != nil {
		return translate(err, domain.ErrDisputeAlreadyOpen, "case for order %s", c.OrderID)
	}
	return appendEntries(tx, c.ID, entries)
}

func updateCase(tx *gorm.DB, c *domain.DisputeCase, expectedVersion int64, entries []domain.TimelineEntry) (*domain.DisputeCase, error) {
	model := mappers.ToGORMDisputeCase(c)
	res := tx.Model(&models.DisputeCaseModel{}).
		Where("id = ? AND version = ?", c.ID, expectedVersion).
		Updates(map[string]any{
			"status": 					model.Status,
			"resolution_action": 		model.ResolutionAction,
			"resolution_amount": 		model.ResolutionAmount,
			"assigned_operator_id": 	model.AssignedOperatorID,
			"escalation_level": 		model.EscalationLevel,
			"updated_at": 				model.UpdatedAt,
			"resolved_at": 				model.ResolvedAt,
			"version": 					expectedVersion + 1,
		})
	if res.Error != nil {
		return nil, translate(res.Error, nil, "update case %s", c.ID)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.DisputeCaseModel{}).Where("id = ?", c.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, translate(gorm.ErrRecordNotFound, nil, "case %s", c.ID)
		}
		return nil, translate(domain.ErrVersionConflict, nil, "case %s at version %d", c.ID, expectedVersion)
	}

	if err := appendEntries(tx, c.ID, entries); err != nil {
		return nil, err
	}

	var stored models.DisputeCaseModel
	if err := withTimeline(tx).First(&stored, "id = ?", c.ID).Error; err != nil {
		return nil, translate(err, nil, "case %s", c.ID)
	}
	return mappers.ToDomainDisputeCase(&stored), nil
}

func appendEntries(tx *gorm.DB, caseID string, entries []domain.TimelineEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := mappers.ToGORMTimelineEntries(caseID, entries)
	if err := tx.Create(&rows).Error; err != nil {
		return translate(err, nil, "timeline for case %s", caseID)
	}
	return nil
}
