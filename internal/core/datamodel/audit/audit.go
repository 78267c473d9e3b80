package audit

import "time"

type AuditLog struct {
	ID         int64     `gorm:"primaryKey"`
	EventID    string    `gorm:"column:event_id;size:36;uniqueIndex;not null"`
	EventType  string    `gorm:"column:event_type;size:50;index;not null"`
	ActorID    *int64    `gorm:"column:actor_id;index"`
	ActorEmail string    `gorm:"column:actor_email;size:255"`
	Target     string    `gorm:"column:target;size:255"`
	IPAddress  string    `gorm:"column:ip_address;size:45"`
	Detail     string    `gorm:"column:detail"`
	OccurredAt time.Time `gorm:"column:occurred_at;index;not null"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
