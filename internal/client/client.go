package client

import (
	"strings"
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	clientDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/client"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBlocked  = "blocked"
	StatusVIP      = "vip"
)

var (
	ErrClientNotFound       = internal.NewNotFoundError("Client not found", internal.ErrCodeClientNotFound)
	ErrOrganizationNotFound = internal.NewNotFoundError("Organization not found", internal.ErrCodeOrganizationNotFound)
	ErrOrganizationRequired = internal.NewValidationFieldError("organization_id", "organization_id is required", internal.ErrCodeValidationFailed)
)

type Client struct {
	ID                  int64      `json:"id"`
	OrganizationID      int64      `json:"organization_id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	MiddleName          string     `json:"middle_name,omitempty"`
	Email               string     `json:"email,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	DateOfBirth         *time.Time `json:"date_of_birth,omitempty"`
	PassportNumber      string     `json:"passport_number,omitempty"`
	PassportIssuedDate  *time.Time `json:"passport_issued_date,omitempty"`
	PassportExpiresDate *time.Time `json:"passport_expires_date,omitempty"`
	Status              string     `json:"status"`
	Notes               string     `json:"notes,omitempty"`
	Preferences         string     `json:"preferences,omitempty"`
	CreatedBy           int64      `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (c *Client) FullName() string {
	parts := []string{c.LastName, c.FirstName}
	if c.MiddleName != "" {
		parts = append(parts, c.MiddleName)
	}
	return strings.Join(parts, " ")
}

// VisibleTo reports whether u may read or edit the client: same organization,
// and either the client-wide permission or authorship.
func (c *Client) VisibleTo(u *auth.User) bool {
	orgID := c.OrganizationID
	if !u.SameOrganization(&orgID) {
		return false
	}
	return auth.HasPermission(u, auth.PermViewAllClients) || c.CreatedBy == u.ID
}

func ToDataModel(c *Client) *clientDatamodel.Client {
	return &clientDatamodel.Client{
		ID:                  c.ID,
		OrganizationID:      c.OrganizationID,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		MiddleName:          c.MiddleName,
		Email:               c.Email,
		Phone:               c.Phone,
		DateOfBirth:         c.DateOfBirth,
		PassportNumber:      c.PassportNumber,
		PassportIssuedDate:  c.PassportIssuedDate,
		PassportExpiresDate: c.PassportExpiresDate,
		Status:              c.Status,
		Notes:               c.Notes,
		Preferences:         c.Preferences,
		CreatedBy:           c.CreatedBy,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func FromDataModel(m *clientDatamodel.Client) *Client {
	return &Client{
		ID:                  m.ID,
		OrganizationID:      m.OrganizationID,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		MiddleName:          m.MiddleName,
		Email:               m.Email,
		Phone:               m.Phone,
		DateOfBirth:         m.DateOfBirth,
		PassportNumber:      m.PassportNumber,
		PassportIssuedDate:  m.PassportIssuedDate,
		PassportExpiresDate: m.PassportExpiresDate,
		Status:              m.Status,
		Notes:               m.Notes,
		Preferences:         m.Preferences,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
