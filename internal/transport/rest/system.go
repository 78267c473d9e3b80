package rest

import (
	"log/slog"
	"net/http"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/transport"
)

// SettingsResponse exposes the non-secret security settings. The signing secret never leaves the process.
type SettingsResponse struct {
	JWTAlgorithm             string            `json:"jwt_algorithm"`
	AccessTokenExpireMinutes int               `json:"access_token_expire_minutes"`
	RefreshTokenExpireDays   int               `json:"refresh_token_expire_days"`
	LoginRateLimit           int               `json:"login_rate_limit"`
	Roles                    []auth.Role       `json:"roles"`
	Permissions              []auth.Permission `json:"permissions"`
}

type SystemHandler struct {
	*transport.BaseHandler
	security internal.SecurityConfig
}

func NewSystemHandler(security internal.SecurityConfig, lg *slog.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: transport.NewBaseHandler(lg),
		security:    security,
	}
}

func (h *SystemHandler) Settings(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	h.WriteJSON(w, http.StatusOK, SettingsResponse{
		JWTAlgorithm:             h.security.Algorithm(),
		AccessTokenExpireMinutes: int(h.security.AccessTokenTTL().Minutes()),
		RefreshTokenExpireDays:   int(h.security.RefreshTokenTTL().Hours() / 24),
		LoginRateLimit:           h.security.LoginRateLimit,
		Roles:                    auth.Roles(),
		Permissions:              auth.AllPermissions(),
	})
}
