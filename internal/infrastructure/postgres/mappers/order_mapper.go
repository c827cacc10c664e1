package mappers

import (
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	status, _ := domain.ParseOrderStatus(model.Status)
	return &domain.Order{
		ID: 			model.ID,
		ListingID: 		model.ListingID,
		BuyerID: 		model.BuyerID,
		SellerID: 		model.SellerID,
		Quantity: 		model.Quantity,
		UnitPrice: 		model.UnitPrice,
		Currency: 		model.Currency,
		Status: 		status,
		Reviewed: 		model.Reviewed,
		DeliveredAt: 	model.DeliveredAt,
		CreatedAt: 		model.CreatedAt,
		UpdatedAt: 		model.UpdatedAt,
		Version: 		model.Version,
	}
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	return &models.OrderModel{
		ID: 			order.ID,
		ListingID: 		order.ListingID,
		BuyerID: 		order.BuyerID,
		SellerID: 		order.SellerID,
		Quantity: 		order.Quantity,
		UnitPrice: 		order.UnitPrice,
		Currency: 		order.Currency,
		Status: 		order.Status.String(),
		Reviewed: 		order.Reviewed,
		DeliveredAt: 	order.DeliveredAt,
		CreatedAt: 		order.CreatedAt,
		UpdatedAt: 		order.UpdatedAt,
		Version: 		order.Version,
	}
}

func ToDomainAuditRecord(model *models.AuditRecordModel) domain.AuditRecord {
	role, _ := domain.ParseActorRole(model.ActorRole)
	action, _ := domain.ParseAction(model.Action)
	from, _ := domain.ParseOrderStatus(model.FromStatus)
	to, _ := domain.ParseOrderStatus(model.ToStatus)
	return domain.AuditRecord{
		ID: 		model.ID,
		OrderID: 	model.OrderID,
		Seq: 		model.Seq,
		ActorID: 	model.ActorID,
		ActorRole: 	role,
		Action: 	action,
		FromStatus: from,
		ToStatus: 	to,
		Timestamp: 	model.Timestamp,
		Metadata: 	model.Metadata,
	}
}

func ToGORMAuditRecord(record *domain.AuditRecord) *models.AuditRecordModel {
	return &models.AuditRecordModel{
		ID: 		record.ID,
		OrderID: 	record.OrderID,
		Seq: 		record.Seq,
		ActorID: 	record.ActorID,
		ActorRole: 	record.ActorRole.String(),
		Action: 	record.Action.String(),
		FromStatus: record.FromStatus.String(),
		ToStatus: 	record.ToStatus.String(),
		Timestamp: 	record.Timestamp,
		Metadata: 	record.Metadata,
	}
}

func ToDomainReview(model *models.ReviewModel) *domain.Review {
	return &domain.Review{
		ID: 		model.ID,
		OrderID: 	model.OrderID,
		ListingID: 	model.ListingID,
		BuyerID: 	model.BuyerID,
		Rating: 	model.Rating,
		Comment: 	model.Comment,
		CreatedAt: 	model.CreatedAt,
	}
}

func ToGORMReview(review *domain.Review) *models.ReviewModel {
	return &models.ReviewModel{
		ID: 		review.ID,
		OrderID: 	review.OrderID,
		ListingID: 	review.ListingID,
		BuyerID: 	review.BuyerID,
		Rating: 	review.Rating,
		Comment: 	review.Comment,
		CreatedAt: 	review.CreatedAt,
	}
}

func ToDomainOutboxEvent(model *models.OutboxEventModel) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID: 			model.ID,
		AggregateID: 	model.AggregateID,
		EventType: 		model.EventType,
		Payload: 		model.Payload,
		Attempts: 		model.Attempts,
		LastError: 		model.LastError,
		CreatedAt: 		model.CreatedAt,
		PublishedAt: 	model.PublishedAt,
	}
}
