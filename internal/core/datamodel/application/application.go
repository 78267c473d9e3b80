package application

import "time"

type Application struct {
	ID                  int64      `gorm:"primaryKey"`
	OrganizationID      int64      `gorm:"column:organization_id;index;not null"`
	ClientID            int64      `gorm:"column:client_id;index;not null"`
	ApplicationNumber   string     `gorm:"column:application_number;size:50;uniqueIndex;not null"`
	Type                string     `gorm:"column:type;size:30;not null"`
	Status              string     `gorm:"column:status;size:20;not null;default:draft"`
	Title               string     `gorm:"column:title;size:255;not null"`
	Description         string     `gorm:"column:description"`
	Destination         string     `gorm:"column:destination;size:255"`
	DepartureDate       *time.Time `gorm:"column:departure_date"`
	ReturnDate          *time.Time `gorm:"column:return_date"`
	AdultsCount         int        `gorm:"column:adults_count;not null;default:1"`
	ChildrenCount       int        `gorm:"column:children_count;not null;default:0"`
	EstimatedCostCents  *int64     `gorm:"column:estimated_cost_cents"`
	FinalCostCents      *int64     `gorm:"column:final_cost_cents"`
	Currency            string     `gorm:"column:currency;size:3;not null;default:RUB"`
	SpecialRequirements string     `gorm:"column:special_requirements"`
	InternalNotes       string     `gorm:"column:internal_notes"`
	AssignedTo          *int64     `gorm:"column:assigned_to;index"`
	CreatedBy           int64      `gorm:"column:created_by;index;not null"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Application) TableName() string {
	return "applications"
}
