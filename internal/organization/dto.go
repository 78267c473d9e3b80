package organization

type CreateOrganizationDTO struct {
	Name               string  `json:"name" validate:"required,max=255"`
	Type               string  `json:"type" validate:"required,oneof=travel_agency tour_operator hotel airline other"`
	RegistrationNumber *string `json:"registration_number" validate:"omitempty,max=50"`
	TaxNumber          string  `json:"tax_number" validate:"omitempty,max=50"`
	Phone              string  `json:"phone" validate:"omitempty,max=20"`
	Email              string  `json:"email" validate:"omitempty,email,max=255"`
	Address            string  `json:"address"`
	Website            string  `json:"website" validate:"omitempty,url,max=255"`
}

type OrganizationsResponse struct {
	Organizations []*Organization `json:"organizations"`
}
