package client

import "time"

type Client struct {
	ID                  int64      `gorm:"primaryKey"`
	OrganizationID      int64      `gorm:"column:organization_id;index;not null"`
	FirstName           string     `gorm:"column:first_name;size:100;not null"`
	LastName            string     `gorm:"column:last_name;size:100;not null"`
	MiddleName          string     `gorm:"column:middle_name;size:100"`
	Email               string     `gorm:"column:email;size:255;index"`
	Phone               string     `gorm:"column:phone;size:20"`
	DateOfBirth         *time.Time `gorm:"column:date_of_birth"`
	PassportNumber      string     `gorm:"column:passport_number;size:20"`
	PassportIssuedDate  *time.Time `gorm:"column:passport_issued_date"`
	PassportExpiresDate *time.Time `gorm:"column:passport_expires_date"`
	Status              string     `gorm:"column:status;size:20;not null;default:active"`
	Notes               string     `gorm:"column:notes"`
	Preferences         string     `gorm:"column:preferences"`
	CreatedBy           int64      `gorm:"column:created_by;index;not null"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Client) TableName() string {
	return "clients"
}
