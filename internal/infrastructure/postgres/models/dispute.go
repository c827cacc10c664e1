package models

import "time"

type DisputeCaseModel struct {
	ID 					string 	`gorm:"primaryKey"`
	OrderID 			string 	`gorm:"index"`
	OpenedBy 			string
	OpenedByID 			string
	Reason 				string
	Status 				string 	`gorm:"index"`
	OrderStatusOriginal string
	ResolutionAction 	string
	ResolutionAmount 	*int64
	AssignedOperatorID 	string
	EscalationLevel 	int
	Timeline 			[]TimelineEntryModel `gorm:"foreignKey:CaseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt 			time.Time
	UpdatedAt 			time.Time
	ResolvedAt 			*time.Time
	Version 			int64
}

func (DisputeCaseModel) TableName() string {
	return "dispute_cases"
}

type TimelineEntryModel struct {
	ID 			int64 	`gorm:"primaryKey;autoIncrement"`
	CaseID 		string 	`gorm:"index"`
	Type 		string
	ActorID 	string
	ActorRole 	string
	Note 		string
	OccurredAt 	time.Time
}

func (TimelineEntryModel) TableName() string {
	return "dispute_timeline"
}
