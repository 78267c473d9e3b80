package client

import "time"

type CreateClientDTO struct {
	OrganizationID      *int64     `json:"organization_id"`
	FirstName           string     `json:"first_name" validate:"required,max=100"`
	LastName            string     `json:"last_name" validate:"required,max=100"`
	MiddleName          string     `json:"middle_name" validate:"omitempty,max=100"`
	Email               string     `json:"email" validate:"omitempty,email,max=255"`
	Phone               string     `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	PassportNumber      string     `json:"passport_number" validate:"omitempty,max=20"`
	PassportIssuedDate  *time.Time `json:"passport_issued_date"`
	PassportExpiresDate *time.Time `json:"passport_expires_date"`
	Status              string     `json:"status" validate:"omitempty,oneof=active inactive blocked vip"`
	Notes               string     `json:"notes"`
	Preferences         string     `json:"preferences"`
}

// UpdateClientDTO is a partial update; nil fields are left unchanged.
type UpdateClientDTO struct {
	FirstName           *string    `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName            *string    `json:"last_name" validate:"omitempty,min=1,max=100"`
	MiddleName          *string    `json:"middle_name" validate:"omitempty,max=100"`
	Email               *string    `json:"email" validate:"omitempty,email,max=255"`
	Phone               *string    `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	PassportNumber      *string    `json:"passport_number" validate:"omitempty,max=20"`
	PassportIssuedDate  *time.Time `json:"passport_issued_date"`
	PassportExpiresDate *time.Time `json:"passport_expires_date"`
	Status              *string    `json:"status" validate:"omitempty,oneof=active inactive blocked vip"`
	Notes               *string    `json:"notes"`
	Preferences         *string    `json:"preferences"`
}

func (dto UpdateClientDTO) ApplyTo(c *Client) {
	if dto.FirstName != nil {
		c.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		c.LastName = *dto.LastName
	}
	if dto.MiddleName != nil {
		c.MiddleName = *dto.MiddleName
	}
	if dto.Email != nil {
		c.Email = *dto.Email
	}
	if dto.Phone != nil {
		c.Phone = *dto.Phone
	}
	if dto.DateOfBirth != nil {
		c.DateOfBirth = dto.DateOfBirth
	}
	if dto.PassportNumber != nil {
		c.PassportNumber = *dto.PassportNumber
	}
	if dto.PassportIssuedDate != nil {
		c.PassportIssuedDate = dto.PassportIssuedDate
	}
	if dto.PassportExpiresDate != nil {
		c.PassportExpiresDate = dto.PassportExpiresDate
	}
	if dto.Status != nil {
		c.Status = *dto.Status
	}
	if dto.Notes != nil {
		c.Notes = *dto.Notes
	}
	if dto.Preferences != nil {
		c.Preferences = *dto.Preferences
	}
}

type ListFilter struct {
	OrganizationID *int64
	CreatedBy      *int64
	Status         string
	Search         string
	Limit          int
	Offset         int
}

type ClientsResponse struct {
	Clients []*Client `json:"clients"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}
