package user

import (
	"github.com/travelcrm/travel-crm/internal"
)

var (
	ErrUserNotFound     = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	ErrInvalidRole      = internal.NewValidationFieldError("role", "role must be one of: admin, supervisor, accountant, operator", internal.ErrCodeInvalidRole)
	ErrCannotTargetSelf = internal.NewForbiddenError("You cannot change or delete your own account", internal.ErrCodePermissionDenied)
)
