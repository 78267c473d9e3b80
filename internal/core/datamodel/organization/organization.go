package organization

import "time"

type Organization struct {
	ID                 int64     `gorm:"primaryKey"`
	Name               string    `gorm:"column:name;size:255;index;not null"`
	Type               string    `gorm:"column:type;size:30;not null"`
	RegistrationNumber *string   `gorm:"column:registration_number;size:50;uniqueIndex"`
	TaxNumber          string    `gorm:"column:tax_number;size:50"`
	Phone              string    `gorm:"column:phone;size:20"`
	Email              string    `gorm:"column:email;size:255"`
	Address            string    `gorm:"column:address"`
	Website            string    `gorm:"column:website;size:255"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}
