package postgres

import (
	"context"
	"errors"

	"github.com/travelcrm/travel-crm/internal/application"
	applicationDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/application"
	"gorm.io/gorm"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) application.RepositoryAPI {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	m := application.ToDataModel(a)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	a.ID = m.ID
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*application.Application, error) {
	var m applicationDatamodel.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}
	return application.FromDataModel(&m), nil
}

func (r *ApplicationRepository) List(ctx context.Context, filter application.ListFilter) ([]*application.Application, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.OrganizationID != nil {
		q = q.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.VisibleTo != nil {
		q = q.Where("(created_by = ? OR assigned_to = ?)", *filter.VisibleTo, *filter.VisibleTo)
	}
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var models []*applicationDatamodel.Application
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	apps := make([]*application.Application, 0, len(models))
	for _, m := range models {
		apps = append(apps, application.FromDataModel(m))
	}
	return apps, nil
}

func (r *ApplicationRepository) Update(ctx context.Context, a *application.Application) error {
	m := application.ToDataModel(a)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	a.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&applicationDatamodel.Application{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return application.ErrNotFound
	}
	return nil
}

type statusRow struct {
	Status    string
	Count     int64
	Estimated int64
	Final     int64
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context, organizationID *int64) ([]application.StatusCount, error) {
	q := r.db.WithContext(ctx).Model(&applicationDatamodel.Application{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(estimated_cost_cents), 0) AS estimated, COALESCE(SUM(final_cost_cents), 0) AS final").
		Group("status").
		Order("status ASC")
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}

	var rows []statusRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make([]application.StatusCount, 0, len(rows))
	for _, row := range rows {
		estimated, final := row.Estimated, row.Final
		counts = append(counts, application.StatusCount{
			Status:             row.Status,
			Count:              row.Count,
			EstimatedCostCents: &estimated,
			FinalCostCents:     &final,
		})
	}
	return counts, nil
}
