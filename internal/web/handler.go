package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/transport"
	"github.com/travelcrm/travel-crm/internal/user"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	minPasswordLength = 6
)

// Handler serves the browser-facing routes. Credentials travel in HttpOnly cookies.
type Handler struct {
	*transport.BaseHandler
	auth       auth.ServiceAPI
	users      user.ServiceAPI
	resolver   auth.PrincipalResolver
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
}

func NewHandler(authSvc auth.ServiceAPI, users user.ServiceAPI, resolver auth.PrincipalResolver, cfg internal.SecurityConfig, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		auth:        authSvc,
		users:       users,
		resolver:    resolver,
		accessTTL:   cfg.AccessTokenTTL(),
		refreshTTL:  cfg.RefreshTokenTTL(),
		secure:      cfg.CookieSecure,
	}
}

// RedirectToLogin is the guard's unauthenticated handler for browser routes.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, _ error) {
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

type DashboardResponse struct {
	Email        string            `json:"email"`
	Role         auth.Role         `json:"role"`
	Permissions  []auth.Permission `json:"permissions"`
	AllowedRoles []auth.Role       `json:"allowed_roles"`
}

type FormErrorsResponse struct {
	Errors []string `json:"errors"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, LoginPath+"?error=invalid_request", http.StatusFound)
		return
	}

	pair, _, err := h.auth.Login(r.Context(), auth.LoginDTO{
		Email:      strings.TrimSpace(r.PostFormValue("email")),
		Password:   r.PostFormValue("password"),
		DeviceInfo: r.UserAgent(),
		IPAddress:  auth.ClientIP(r),
	})
	if err != nil {
		_, validationFailed := internal.IsAppError(err)
		if errors.Is(err, auth.ErrInvalidCredentials) || validationFailed {
			http.Redirect(w, r, LoginPath+"?error=invalid_credentials", http.StatusFound)
			return
		}
		h.Logger.ErrorContext(r.Context(), "web login failed", "error", err)
		http.Redirect(w, r, LoginPath+"?error=server_error", http.StatusFound)
		return
	}

	h.setCookie(w, auth.AccessTokenCookie, "Bearer "+pair.AccessToken, h.accessTTL)
	h.setCookie(w, auth.RefreshTokenCookie, pair.RefreshToken, h.refreshTTL)
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}

// Logout revokes what it can and always clears both cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var refresh string
	if c, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		refresh = c.Value
	}

	if principal, claims, err := h.resolver.ResolveWithClaims(r); err == nil {
		if err := h.auth.Logout(r.Context(), principal, claims, refresh); err != nil {
			h.Logger.WarnContext(r.Context(), "web logout revocation failed", "error", err, "user_id", principal.ID)
		}
	}

	h.clearCookie(w, auth.AccessTokenCookie)
	h.clearCookie(w, auth.RefreshTokenCookie)
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	h.WriteJSON(w, http.StatusOK, DashboardResponse{
		Email:        principal.Email,
		Role:         principal.Role,
		Permissions:  auth.PermissionsFor(principal.Role),
		AllowedRoles: auth.AllowedRolesToAssign(principal.Role),
	})
}

// Register creates a user from the dashboard form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	if err := r.ParseForm(); err != nil {
		h.WriteJSON(w, http.StatusBadRequest, FormErrorsResponse{Errors: []string{"invalid form body"}})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("password_confirm")
	role := strings.TrimSpace(r.PostFormValue("role"))

	var problems []string
	if password != confirm {
		problems = append(problems, "Passwords do not match")
	}
	if len(password) < minPasswordLength {
		problems = append(problems, "Password must be at least 6 characters")
	}
	if len(problems) > 0 {
		h.WriteJSON(w, http.StatusBadRequest, FormErrorsResponse{Errors: problems})
		return
	}

	_, err := h.users.Register(r.Context(), principal, user.RegisterDTO{Email: email, Password: password, Role: role})
	if err != nil {
		h.WriteJSON(w, http.StatusBadRequest, FormErrorsResponse{Errors: formErrors(err)})
		return
	}

	http.Redirect(w, r, DashboardPath+"?user_created=1", http.StatusFound)
}

func formErrors(err error) []string {
	var denied *auth.PermissionDeniedError
	if errors.As(err, &denied) {
		return []string{denied.Detail}
	}

	if appErr, ok := internal.IsAppError(err); ok {
		if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
			out := make([]string, 0, len(details.Errors))
			for _, e := range details.Errors {
				out = append(out, e.Message)
			}
			return out
		}
		if appErr.StatusCode < http.StatusInternalServerError {
			return []string{appErr.Message}
		}
	}
	return []string{"Could not create user"}
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
