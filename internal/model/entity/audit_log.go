package entity

import "time"

// AuditLog 操作审计日志，只增不改
type AuditLog struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	UserID     string    `json:"user_id" gorm:"size:32;index"`
	Action     string    `json:"action" gorm:"size:32;not null"` // create/update/delete/submit/approve/issue/revoke...
	EntityType string    `json:"entity_type" gorm:"size:64;not null;index"`
	EntityID   string    `json:"entity_id" gorm:"size:32;not null;index"`
	OldValues  JSONB     `json:"old_values" gorm:"type:jsonb"`
	NewValues  JSONB     `json:"new_values" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Notification 站内通知
type Notification struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	UserID     string    `json:"user_id" gorm:"size:32;not null;index"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	Message    string    `json:"message" gorm:"type:text"`
	EntityType string    `json:"entity_type" gorm:"size:64"`
	EntityID   string    `json:"entity_id" gorm:"size:32"`
	IsRead     bool      `json:"is_read" gorm:"not null;default:false;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
