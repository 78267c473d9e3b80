package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated     = "user.created"
	EventTypeUserDeleted     = "user.deleted"
	EventTypeUserRoleChanged = "user.role_changed"
	EventTypeLoginSucceeded  = "auth.login_succeeded"
	EventTypeLoginFailed     = "auth.login_failed"
	EventTypeLogout          = "auth.logout"
	EventTypeAccessDenied    = "auth.access_denied"
)

// AuditEventTypes lists every event the audit trail records.
var AuditEventTypes = []string{
	EventTypeUserCreated,
	EventTypeUserDeleted,
	EventTypeUserRoleChanged,
	EventTypeLoginSucceeded,
	EventTypeLoginFailed,
	EventTypeLogout,
	EventTypeAccessDenied,
}

type AuditFields struct {
	ActorID    *int64
	ActorEmail string
	Target     string
	IPAddress  string
	Detail     string
}

// AuditEvent records a security-relevant action.
type AuditEvent struct {
	BaseEvent
	AuditFields
}

func NewAuditEvent(eventType string, fields AuditFields) *AuditEvent {
	data := map[string]interface{}{
		"actor_email": fields.ActorEmail,
		"target":      fields.Target,
		"ip_address":  fields.IPAddress,
		"detail":      fields.Detail,
	}
	if fields.ActorID != nil {
		data["actor_id"] = *fields.ActorID
	}

	return &AuditEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		AuditFields: fields,
	}
}
