package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/travelcrm/travel-crm/internal/core/events"
)

// Recorder persists security events published on the bus.
type Recorder struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewRecorder(repo RepositoryAPI, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) HandleAuditEvent(ctx context.Context, event events.Event) error {
	auditEvent, ok := event.(*events.AuditEvent)
	if !ok {
		r.logger.Error("invalid event type for audit handler", "event_type", event.EventType())
		return fmt.Errorf("expected AuditEvent, got %T", event)
	}

	entry := &Entry{
		EventID:    auditEvent.EventID(),
		EventType:  auditEvent.EventType(),
		ActorID:    auditEvent.ActorID,
		ActorEmail: auditEvent.ActorEmail,
		Target:     auditEvent.Target,
		IPAddress:  auditEvent.IPAddress,
		Detail:     auditEvent.Detail,
		OccurredAt: auditEvent.OccurredAt(),
	}
	if err := r.repo.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit event %s: %w", auditEvent.EventID(), err)
	}
	return nil
}

func (r *Recorder) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.SubscribeAll(events.AuditEventTypes, r.HandleAuditEvent)

	r.logger.Info("audit event handlers registered", "handlers", events.AuditEventTypes)
}
