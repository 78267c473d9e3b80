package organization

import (
	"time"

	organizationDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/organization"
)

const (
	TypeTravelAgency = "travel_agency"
	TypeTourOperator = "tour_operator"
	TypeHotel        = "hotel"
	TypeAirline      = "airline"
	TypeOther        = "other"
)

type Organization struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	RegistrationNumber *string   `json:"registration_number,omitempty"`
	TaxNumber          string    `json:"tax_number,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email,omitempty"`
	Address            string    `json:"address,omitempty"`
	Website            string    `json:"website,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func ToDataModel(o *Organization) *organizationDatamodel.Organization {
	return &organizationDatamodel.Organization{
		ID:                 o.ID,
		Name:               o.Name,
		Type:               o.Type,
		RegistrationNumber: o.RegistrationNumber,
		TaxNumber:          o.TaxNumber,
		Phone:              o.Phone,
		Email:              o.Email,
		Address:            o.Address,
		Website:            o.Website,
		IsActive:           o.IsActive,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func FromDataModel(m *organizationDatamodel.Organization) *Organization {
	return &Organization{
		ID:                 m.ID,
		Name:               m.Name,
		Type:               m.Type,
		RegistrationNumber: m.RegistrationNumber,
		TaxNumber:          m.TaxNumber,
		Phone:              m.Phone,
		Email:              m.Email,
		Address:            m.Address,
		Website:            m.Website,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
