package organization

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	orgs, err := h.Service.List(r.Context(), principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, OrganizationsResponse{Organizations: orgs})
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	var dto CreateOrganizationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := h.Service.Create(r.Context(), principal, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, org)
}
