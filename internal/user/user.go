package user

import (
	"time"

	"github.com/travelcrm/travel-crm/internal/auth"
	userDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/user"
)

// Response is the public view of an account. The password digest never leaves the service.
type Response struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Role           auth.Role `json:"role"`
	OrganizationID *int64    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToResponse(u *auth.User) Response {
	return Response{
		ID:             u.ID,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		CreatedAt:      u.CreatedAt,
	}
}

func ToDataModel(u *auth.User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:             u.ID,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// FromDataModel keeps an unrecognised stored role as-is; the matrix grants it nothing.
func FromDataModel(u *userDatamodel.User) *auth.User {
	role, err := auth.ParseRole(u.Role)
	if err != nil {
		role = auth.Role(u.Role)
	}
	return &auth.User{
		ID:             u.ID,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           role,
		OrganizationID: u.OrganizationID,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
