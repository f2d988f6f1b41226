package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionStatusChange AuditAction = "STATUS_CHANGE"
)

// AuditLog records a change made to a ledger entity, written in the same
// transaction as the change itself.
type AuditLog struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	EntityType string         `json:"entity_type" gorm:"size:50;not null;index:idx_audit_logs_entity"`
	EntityID   string         `json:"entity_id" gorm:"size:64;not null;index:idx_audit_logs_entity"`
	Action     AuditAction    `json:"action" gorm:"size:20;not null"`
	FromStatus *string        `json:"from_status,omitempty" gorm:"size:20"`
	ToStatus   *string        `json:"to_status,omitempty" gorm:"size:20"`
	Reason     *string        `json:"reason,omitempty"`
	Data       datatypes.JSON `json:"data,omitempty"`
	ChangedBy  *uuid.UUID     `json:"changed_by,omitempty" gorm:"type:uuid"`
	ChangedAt  time.Time      `json:"changed_at" gorm:"not null"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
