package application

import "time"

type CreateApplicationDTO struct {
	ClientID            int64      `json:"client_id" validate:"required,gt=0"`
	Type                string     `json:"type" validate:"required,oneof=tour_package flight hotel transfer excursion insurance visa other"`
	Title               string     `json:"title" validate:"required,max=255"`
	Description         string     `json:"description"`
	Destination         string     `json:"destination" validate:"omitempty,max=255"`
	DepartureDate       *time.Time `json:"departure_date"`
	ReturnDate          *time.Time `json:"return_date"`
	AdultsCount         int        `json:"adults_count" validate:"omitempty,min=1,max=50"`
	ChildrenCount       int        `json:"children_count" validate:"omitempty,min=0,max=50"`
	EstimatedCostCents  *int64     `json:"estimated_cost_cents" validate:"omitempty,min=0"`
	Currency            string     `json:"currency" validate:"omitempty,len=3"`
	SpecialRequirements string     `json:"special_requirements"`
	InternalNotes       string     `json:"internal_notes"`
}

// UpdateApplicationDTO is a partial update; nil fields are left unchanged.
type UpdateApplicationDTO struct {
	Type                *string    `json:"type" validate:"omitempty,oneof=tour_package flight hotel transfer excursion insurance visa other"`
	Title               *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description         *string    `json:"description"`
	Destination         *string    `json:"destination" validate:"omitempty,max=255"`
	DepartureDate       *time.Time `json:"departure_date"`
	ReturnDate          *time.Time `json:"return_date"`
	AdultsCount         *int       `json:"adults_count" validate:"omitempty,min=1,max=50"`
	ChildrenCount       *int       `json:"children_count" validate:"omitempty,min=0,max=50"`
	EstimatedCostCents  *int64     `json:"estimated_cost_cents" validate:"omitempty,min=0"`
	FinalCostCents      *int64     `json:"final_cost_cents" validate:"omitempty,min=0"`
	Currency            *string    `json:"currency" validate:"omitempty,len=3"`
	SpecialRequirements *string    `json:"special_requirements"`
	InternalNotes       *string    `json:"internal_notes"`
}

func (dto UpdateApplicationDTO) TouchesFinancialData() bool {
	return dto.EstimatedCostCents != nil || dto.FinalCostCents != nil || dto.Currency != nil
}

func (dto UpdateApplicationDTO) ApplyTo(a *Application) {
	if dto.Type != nil {
		a.Type = *dto.Type
	}
	if dto.Title != nil {
		a.Title = *dto.Title
	}
	if dto.Description != nil {
		a.Description = *dto.Description
	}
	if dto.Destination != nil {
		a.Destination = *dto.Destination
	}
	if dto.DepartureDate != nil {
		a.DepartureDate = dto.DepartureDate
	}
	if dto.ReturnDate != nil {
		a.ReturnDate = dto.ReturnDate
	}
	if dto.AdultsCount != nil {
		a.AdultsCount = *dto.AdultsCount
	}
	if dto.ChildrenCount != nil {
		a.ChildrenCount = *dto.ChildrenCount
	}
	if dto.EstimatedCostCents != nil {
		a.EstimatedCostCents = dto.EstimatedCostCents
	}
	if dto.FinalCostCents != nil {
		a.FinalCostCents = dto.FinalCostCents
	}
	if dto.Currency != nil {
		a.Currency = *dto.Currency
	}
	if dto.SpecialRequirements != nil {
		a.SpecialRequirements = *dto.SpecialRequirements
	}
	if dto.InternalNotes != nil {
		a.InternalNotes = *dto.InternalNotes
	}
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=draft submitted processing confirmed paid completed cancelled refunded"`
}

type AssignDTO struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type ListFilter struct {
	OrganizationID *int64
	// VisibleTo limits results to applications created by or assigned to this user.
	VisibleTo *int64
	ClientID  *int64
	Status    string
	Limit     int
	Offset    int
}

type ApplicationsResponse struct {
	Applications []*Application `json:"applications"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}

type StatusCount struct {
	Status             string `json:"status"`
	Count              int64  `json:"count"`
	EstimatedCostCents *int64 `json:"estimated_cost_cents,omitempty"`
	FinalCostCents     *int64 `json:"final_cost_cents,omitempty"`
}

type Report struct {
	OrganizationID *int64        `json:"organization_id,omitempty"`
	Total          int64         `json:"total"`
	ByStatus       []StatusCount `json:"by_status"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
