package user

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             int64     `gorm:"primaryKey"`
	Email          string    `gorm:"column:email;size:255;uniqueIndex:idx_users_email_active,where:deleted_at IS NULL;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	Role           string    `gorm:"column:role;size:20;not null;default:operator"`
	OrganizationID *int64    `gorm:"column:organization_id;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
	// DeletedAt keeps deleted accounts for the refresh token and audit trail.
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}
