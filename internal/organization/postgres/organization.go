package postgres

import (
	"context"
	"errors"

	organizationDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/organization"
	"github.com/travelcrm/travel-crm/internal/organization"
	"gorm.io/gorm"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organization.RepositoryAPI {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) List(ctx context.Context) ([]*organization.Organization, error) {
	var models []*organizationDatamodel.Organization
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	orgs := make([]*organization.Organization, 0, len(models))
	for _, m := range models {
		orgs = append(orgs, organization.FromDataModel(m))
	}
	return orgs, nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*organization.Organization, error) {
	var m organizationDatamodel.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrNotFound
		}
		return nil, err
	}
	return organization.FromDataModel(&m), nil
}

func (r *OrganizationRepository) Create(ctx context.Context, o *organization.Organization) error {
	m := organization.ToDataModel(o)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	o.ID = m.ID
	o.CreatedAt = m.CreatedAt
	o.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *OrganizationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&organizationDatamodel.Organization{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
