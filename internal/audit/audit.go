package audit

import (
	"context"
	"time"

	auditDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/audit"
)

type Entry struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	ActorEmail string    `json:"actor_email,omitempty"`
	Target     string    `json:"target,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ListFilter struct {
	EventType string
	ActorID   *int64
	Limit     int
	Offset    int
}

type RepositoryAPI interface {
	// Record stores the entry. An entry whose EventID was already stored is ignored.
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter ListFilter) ([]*Entry, error)
}

type LogsResponse struct {
	Logs   []*Entry `json:"logs"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

func ToDataModel(e *Entry) *auditDatamodel.AuditLog {
	return &auditDatamodel.AuditLog{
		ID:         e.ID,
		EventID:    e.EventID,
		EventType:  e.EventType,
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		Target:     e.Target,
		IPAddress:  e.IPAddress,
		Detail:     e.Detail,
		OccurredAt: e.OccurredAt,
	}
}

func FromDataModel(m *auditDatamodel.AuditLog) *Entry {
	return &Entry{
		ID:         m.ID,
		EventID:    m.EventID,
		EventType:  m.EventType,
		ActorID:    m.ActorID,
		ActorEmail: m.ActorEmail,
		Target:     m.Target,
		IPAddress:  m.IPAddress,
		Detail:     m.Detail,
		OccurredAt: m.OccurredAt,
	}
}
