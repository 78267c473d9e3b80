package application

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

func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	var dto CreateApplicationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateApplication: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.Create(r.Context(), principal, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a.ViewFor(principal))
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	limit, offset := transport.ParsePagination(r)
	filter := ListFilter{Status: r.URL.Query().Get("status"), Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		clientID, ok := transport.ParseIDParam(raw)
		if !ok {
			h.WriteError(w, http.StatusBadRequest, "invalid client_id")
			return
		}
		filter.ClientID = &clientID
	}

	apps, err := h.Service.List(r.Context(), principal, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := ApplicationsResponse{Applications: make([]*Application, 0, len(apps)), Limit: limit, Offset: offset}
	for _, a := range apps {
		resp.Applications = append(resp.Applications, a.ViewFor(principal))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.Get(r.Context(), principal, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a.ViewFor(principal))
}

func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto UpdateApplicationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.Update(r.Context(), principal, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a.ViewFor(principal))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.UpdateStatus(r.Context(), principal, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a.ViewFor(principal))
}

func (h *Handler) AssignApplication(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	var dto AssignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Service.Assign(r.Context(), principal, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a.ViewFor(principal))
}

func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApplicationsReport(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	report, err := h.Service.Report(r.Context(), principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := transport.ParseIDParam(chi.URLParam(r, "id"))
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid application id")
	}
	return id, ok
}
