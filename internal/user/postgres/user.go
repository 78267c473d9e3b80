package postgres

import (
	"context"
	"errors"

	"github.com/travelcrm/travel-crm/internal/auth"
	userDatamodel "github.com/travelcrm/travel-crm/internal/core/datamodel/user"
	"github.com/travelcrm/travel-crm/internal/user"
	"gorm.io/gorm"
)

// UserRepository expects the gorm session to be opened with TranslateError so
// unique violations surface as gorm.ErrDuplicatedKey.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ user.RepositoryAPI = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&m), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&m), nil
}

func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	m := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return auth.ErrEmailTaken
		}
		return err
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *UserRepository) Save(ctx context.Context, u *auth.User) error {
	m := user.ToDataModel(u)
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"email":           m.Email,
		"password_hash":   m.PasswordHash,
		"role":            m.Role,
		"organization_id": m.OrganizationID,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return auth.ErrEmailTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*auth.User, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if filter.OrganizationID != nil {
		q = q.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var models []*userDatamodel.User
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]*auth.User, 0, len(models))
	for _, m := range models {
		users = append(users, user.FromDataModel(m))
	}
	return users, nil
}

// Delete soft-deletes the user. The row stays so refresh token and audit
// records keep their owner; lookups no longer find it.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userDatamodel.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
