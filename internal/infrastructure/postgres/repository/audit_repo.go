package repository

import (
	"context"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultAuditRepository struct {
	db *gorm.DB
}

func NewDefaultAuditRepository(db *gorm.DB) *DefaultAuditRepository {
	return &DefaultAuditRepository{db: db}
}

func (r *DefaultAuditRepository) GetTrail(ctx context.Context, orderID string) ([]domain.AuditRecord, error) {
	var recordModels []models.AuditRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("timestamp ASC, seq ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	trail := make([]domain.AuditRecord, len(recordModels))
	for i := range recordModels {
		trail[i] = mappers.ToDomainAuditRecord(&recordModels[i])
	}
	return trail, nil
}

func (r *DefaultAuditRepository) ListByListing(ctx context.Context, listingID string) ([]*domain.Review, error) {
	var reviewModels []models.ReviewModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&reviewModels).Error; err != nil {
		return nil, err
	}

	reviews := make([]*domain.Review, len(reviewModels))
	for i := range reviewModels {
		reviews[i] = mappers.ToDomainReview(&reviewModels[i])
	}
	return reviews, nil
}

type DefaultOutboxRepository struct {
	db 	*gorm.DB
	now func() time.Time
}

func NewDefaultOutboxRepository(db *gorm.DB) *DefaultOutboxRepository {
	return &DefaultOutboxRepository{db: db, now: time.Now}
}

func (r *DefaultOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var eventModels []models.OutboxEventModel
	if err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]*domain.OutboxEvent, len(eventModels))
	for i := range eventModels {
		events[i] = mappers.ToDomainOutboxEvent(&eventModels[i])
	}
	return events, nil
}

func (r *DefaultOutboxRepository) MarkPublished(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OutboxEventModel{}).
		Where("id IN ?", ids).
		Update("published_at", r.now()).Error
}

func (r *DefaultOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxEventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts": 	gorm.Expr("attempts + 1"),
			"last_error": 	reason,
		}).Error
}
