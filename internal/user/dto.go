package user

// RegisterDTO is used by authenticated staff creating accounts.
type RegisterDTO struct {
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=6,max=128"`
	Role           string `json:"role"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
}

// PublicRegisterDTO is the self-service sign-up; it always yields an operator.
type PublicRegisterDTO struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type ChangeRoleDTO struct {
	Role string `json:"role" validate:"required"`
}

type UsersResponse struct {
	Users  []Response `json:"users"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type ListFilter struct {
	OrganizationID *int64
	Limit          int
	Offset         int
}
