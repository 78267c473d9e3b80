package user

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Register: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Register(r.Context(), principal, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToResponse(u))
}

func (h *Handler) PublicRegister(w http.ResponseWriter, r *http.Request) {
	var dto PublicRegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.PublicRegister(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToResponse(u))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	limit, offset := transport.ParsePagination(r)

	users, err := h.Service.List(r.Context(), principal, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := UsersResponse{Users: make([]Response, 0, len(users)), Limit: limit, Offset: offset}
	for _, u := range users {
		resp.Users = append(resp.Users, ToResponse(u))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.Service.Get(r.Context(), principal, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.Delete(r.Context(), principal, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto ChangeRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.ChangeRole(r.Context(), principal, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(u))
}
