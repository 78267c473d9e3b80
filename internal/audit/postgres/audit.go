package postgres

import (
	"context"

	"github.com/travelcrm/travel-crm/internal/audit"
	auditDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/audit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, e *audit.Entry) error {
	m := audit.ToDataModel(e)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return err
	}
	e.ID = m.ID
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.ListFilter) ([]*audit.Entry, error) {
	q := r.db.WithContext(ctx).Order("occurred_at DESC, id DESC")
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.ActorID != nil {
		q = q.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var models []*auditDatamodel.AuditLog
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, audit.FromDataModel(m))
	}
	return entries, nil
}
