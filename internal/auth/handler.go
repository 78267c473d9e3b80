package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Login accepts the OAuth2 password form: username (the email) and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	pair, _, err := h.Service.Login(r.Context(), LoginDTO{
		Email:      r.PostFormValue("username"),
		Password:   r.PostFormValue("password"),
		DeviceInfo: r.UserAgent(),
		IPAddress:  ClientIP(r),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.WriteAppError(w, internal.ErrInvalidCredentials)
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, pair)
}

// RefreshToken reads the refresh token from a JSON body, falling back to the cookie.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := decodeOptionalJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.RefreshToken == "" {
		dto.RefreshToken = refreshTokenFromCookie(r)
	}
	dto.DeviceInfo = r.UserAgent()
	dto.IPAddress = ClientIP(r)

	pair, err := h.Service.Refresh(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, principal *User) {
	h.WriteJSON(w, http.StatusOK, MeResponse{
		ID:    principal.ID,
		Email: principal.Email,
		Role:  principal.Role,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, principal *User) {
	var dto LogoutDTO
	if err := decodeOptionalJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.RefreshToken == "" {
		dto.RefreshToken = refreshTokenFromCookie(r)
	}

	claims, _ := ClaimsFromContext(r.Context())
	if err := h.Service.Logout(r.Context(), principal, claims, dto.RefreshToken); err != nil {
		h.Logger.ErrorContext(r.Context(), "logout failed", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AllowedRoles(w http.ResponseWriter, r *http.Request, principal *User) {
	h.WriteJSON(w, http.StatusOK, AllowedRolesResponse{Roles: AllowedRolesToAssign(principal.Role)})
}

func refreshTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// decodeOptionalJSON decodes a JSON body if one was sent. An empty body is not an error.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
