package client

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

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	var dto CreateClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateClient: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.Create(r.Context(), principal, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	limit, offset := transport.ParsePagination(r)
	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}

	clients, err := h.Service.List(r.Context(), principal, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ClientsResponse{Clients: clients, Limit: limit, Offset: offset})
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	c, err := h.Service.Get(r.Context(), principal, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var dto UpdateClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.Update(r.Context(), principal, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if err := h.Service.Delete(r.Context(), principal, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
