package mappers

import (
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/postgres/models"
)

func ToDomainDisputeCase(model *models.DisputeCaseModel) *domain.DisputeCase {
	openedBy, _ := domain.ParseActorRole(model.OpenedBy)
	status, _ := domain.ParseCaseStatus(model.Status)
	original, _ := domain.ParseOrderStatus(model.OrderStatusOriginal)
	var resolution domain.ResolutionAction
	if model.ResolutionAction != "" {
		resolution, _ = domain.ParseResolutionAction(model.ResolutionAction)
	}

	timeline := make([]domain.TimelineEntry, len(model.Timeline))
	for i := range model.Timeline {
		timeline[i] = ToDomainTimelineEntry(&model.Timeline[i])
	}

	return &domain.DisputeCase{
		ID: 					model.ID,
		OrderID: 				model.OrderID,
		OpenedBy: 				openedBy,
		OpenedByID: 			model.OpenedByID,
		Reason: 				model.Reason,
		Status: 				status,
		OrderStatusOriginal: 	original,
		ResolutionAction: 		resolution,
		ResolutionAmount: 		model.ResolutionAmount,
		AssignedOperatorID: 	model.AssignedOperatorID,
		EscalationLevel: 		model.EscalationLevel,
		Timeline: 				timeline,
		CreatedAt: 				model.CreatedAt,
		UpdatedAt: 				model.UpdatedAt,
		ResolvedAt: 			model.ResolvedAt,
		Version: 				model.Version,
	}
}

// ToGORMDisputeCase maps the case row only; timeline entries are appended separately.
func ToGORMDisputeCase(c *domain.DisputeCase) *models.DisputeCaseModel {
	var resolution string
	if c.ResolutionAction != domain.ResolutionNone {
		resolution = c.ResolutionAction.String()
	}
	return &models.DisputeCaseModel{
		ID: 					c.ID,
		OrderID: 				c.OrderID,
		OpenedBy: 				c.OpenedBy.String(),
		OpenedByID: 			c.OpenedByID,
		Reason: 				c.Reason,
		Status: 				c.Status.String(),
		OrderStatusOriginal: 	c.OrderStatusOriginal.String(),
		ResolutionAction: 		resolution,
		ResolutionAmount: 		c.ResolutionAmount,
		AssignedOperatorID: 	c.AssignedOperatorID,
		EscalationLevel: 		c.EscalationLevel,
		CreatedAt: 				c.CreatedAt,
		UpdatedAt: 				c.UpdatedAt,
		ResolvedAt: 			c.ResolvedAt,
		Version: 				c.Version,
	}
}

func ToDomainTimelineEntry(model *models.TimelineEntryModel) domain.TimelineEntry {
	role, _ := domain.ParseActorRole(model.ActorRole)
	return domain.TimelineEntry{
		Type: 		domain.CaseEventType(model.Type),
		ActorID: 	model.ActorID,
		ActorRole: 	role,
		Note: 		model.Note,
		OccurredAt: model.OccurredAt,
	}
}

func ToGORMTimelineEntries(caseID string, entries []domain.TimelineEntry) []models.TimelineEntryModel {
	out := make([]models.TimelineEntryModel, len(entries))
	for i, e := range entries {
		out[i] = models.TimelineEntryModel{
			CaseID: 	caseID,
			Type: 		string(e.Type),
			ActorID: 	e.ActorID,
			ActorRole: 	e.ActorRole.String(),
			Note: 		e.Note,
			OccurredAt: e.OccurredAt,
		}
	}
	return out
}
