package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	applicationDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/application"
)

const (
	StatusDraft      = "draft"
	StatusSubmitted  = "submitted"
	StatusProcessing = "processing"
	StatusConfirmed  = "confirmed"
	StatusPaid       = "paid"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"

	DefaultCurrency = "RUB"
)

const (
	TypeTourPackage = "tour_package"
	TypeFlight      = "flight"
	TypeHotel       = "hotel"
	TypeTransfer    = "transfer"
	TypeExcursion   = "excursion"
	TypeInsurance   = "insurance"
	TypeVisa        = "visa"
	TypeOther       = "other"
)

var Statuses = []string{
	StatusDraft, StatusSubmitted, StatusProcessing, StatusConfirmed,
	StatusPaid, StatusCompleted, StatusCancelled, StatusRefunded,
}

var transitions = map[string][]string{
	StatusDraft:      {StatusSubmitted, StatusCancelled},
	StatusSubmitted:  {StatusProcessing, StatusDraft, StatusCancelled},
	StatusProcessing: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusCompleted, StatusRefunded},
	StatusCancelled:  {StatusRefunded},
}

var (
	ErrApplicationNotFound = internal.NewNotFoundError("Application not found", internal.ErrCodeApplicationNotFound)
	ErrAssigneeNotFound    = internal.NewValidationFieldError("user_id", "assignee not found in this organization", internal.ErrCodeUserNotFound)
)

type Application struct {
	ID                  int64      `json:"id"`
	OrganizationID      int64      `json:"organization_id"`
	ClientID            int64      `json:"client_id"`
	ApplicationNumber   string     `json:"application_number"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Destination         string     `json:"destination,omitempty"`
	DepartureDate       *time.Time `json:"departure_date,omitempty"`
	ReturnDate          *time.Time `json:"return_date,omitempty"`
	AdultsCount         int        `json:"adults_count"`
	ChildrenCount       int        `json:"children_count"`
	EstimatedCostCents  *int64     `json:"estimated_cost_cents,omitempty"`
	FinalCostCents      *int64     `json:"final_cost_cents,omitempty"`
	Currency            string     `json:"currency"`
	SpecialRequirements string     `json:"special_requirements,omitempty"`
	InternalNotes       string     `json:"internal_notes,omitempty"`
	AssignedTo          *int64     `json:"assigned_to,omitempty"`
	CreatedBy           int64      `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewApplicationNumber returns a human-facing booking reference such as APP-20260118-1A2B3C4D.
func NewApplicationNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("APP-%s-%s", now.Format("20060102"), suffix)
}

func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (a *Application) CanTransitionTo(status string) bool {
	for _, next := range transitions[a.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// VisibleTo reports whether u may read or edit the application: same
// organization, and either the application-wide permission, authorship or assignment.
func (a *Application) VisibleTo(u *auth.User) bool {
	orgID := a.OrganizationID
	if !u.SameOrganization(&orgID) {
		return false
	}
	if auth.HasPermission(u, auth.PermViewAllApplications) {
		return true
	}
	return a.CreatedBy == u.ID || (a.AssignedTo != nil && *a.AssignedTo == u.ID)
}

// ViewFor returns a copy with the cost fields removed unless u may see financial data.
func (a *Application) ViewFor(u *auth.User) *Application {
	view := *a
	if !auth.HasPermission(u, auth.PermViewFinancialData) {
		view.EstimatedCostCents = nil
		view.FinalCostCents = nil
	}
	return &view
}

func ToDataModel(a *Application) *applicationDatamodel.Application {
	return &applicationDatamodel.Application{
		ID:                  a.ID,
		OrganizationID:      a.OrganizationID,
		ClientID:            a.ClientID,
		ApplicationNumber:   a.ApplicationNumber,
		Type:                a.Type,
		Status:              a.Status,
		Title:               a.Title,
		Description:         a.Description,
		Destination:         a.Destination,
		DepartureDate:       a.DepartureDate,
		ReturnDate:          a.ReturnDate,
		AdultsCount:         a.AdultsCount,
		ChildrenCount:       a.ChildrenCount,
		EstimatedCostCents:  a.EstimatedCostCents,
		FinalCostCents:      a.FinalCostCents,
		Currency:            a.Currency,
		SpecialRequirements: a.SpecialRequirements,
		InternalNotes:       a.InternalNotes,
		AssignedTo:          a.AssignedTo,
		CreatedBy:           a.CreatedBy,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func FromDataModel(m *applicationDatamodel.Application) *Application {
	return &Application{
		ID:                  m.ID,
		OrganizationID:      m.OrganizationID,
		ClientID:            m.ClientID,
		ApplicationNumber:   m.ApplicationNumber,
		Type:                m.Type,
		Status:              m.Status,
		Title:               m.Title,
		Description:         m.Description,
		Destination:         m.Destination,
		DepartureDate:       m.DepartureDate,
		ReturnDate:          m.ReturnDate,
		AdultsCount:         m.AdultsCount,
		ChildrenCount:       m.ChildrenCount,
		EstimatedCostCents:  m.EstimatedCostCents,
		FinalCostCents:      m.FinalCostCents,
		Currency:            m.Currency,
		SpecialRequirements: m.SpecialRequirements,
		InternalNotes:       m.InternalNotes,
		AssignedTo:          m.AssignedTo,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
