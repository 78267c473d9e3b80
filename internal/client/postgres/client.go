package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/travelcrm/travel-crm/internal/client"
	clientDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/client"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) client.RepositoryAPI {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	m := client.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	c.ID = m.ID
	c.CreatedAt = m.CreatedAt
	c.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*client.Client, error) {
	var m clientDatamodel.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, client.ErrNotFound
		}
		return nil, err
	}
	return client.FromDataModel(&m), nil
}

func (r *ClientRepository) List(ctx context.Context, filter client.ListFilter) ([]*client.Client, error) {
	q := r.db.WithContext(ctx).Order("last_name ASC, first_name ASC, id ASC")
	if filter.OrganizationID != nil {
		q = q.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", like, like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var models []*clientDatamodel.Client
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	clients := make([]*client.Client, 0, len(models))
	for _, m := range models {
		clients = append(clients, client.FromDataModel(m))
	}
	return clients, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *client.Client) error {
	m := client.ToDataModel(c)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	c.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&clientDatamodel.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return client.ErrNotFound
	}
	return nil
}
