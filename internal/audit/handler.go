package audit

import (
	"log/slog"
	"net/http"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	repo RepositoryAPI
}

func NewHandler(repo RepositoryAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		repo:        repo,
	}
}

// ListLogs returns recent audit entries, newest first.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request, principal *auth.User) {
	limit, offset := transport.ParsePagination(r)
	filter := ListFilter{EventType: r.URL.Query().Get("event_type"), Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		actorID, ok := transport.ParseIDParam(raw)
		if !ok {
			h.WriteError(w, http.StatusBadRequest, "invalid actor_id")
			return
		}
		filter.ActorID = &actorID
	}

	entries, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to list audit logs", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LogsResponse{Logs: entries, Limit: limit, Offset: offset})
}
