package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction is the kind of operator action being recorded.
type AuditAction string

const (
	AuditActionSuspend   AuditAction = "SUSPEND"
	AuditActionUnsuspend AuditAction = "UNSUSPEND"
	AuditActionCancel    AuditAction = "CANCEL"
	AuditActionEdit      AuditAction = "EDIT"
)

// AuditLog records operator actions against a gift card. Status transitions
// move no money, so they get an audit row rather than a ledger entry.
type AuditLog struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CardID    uuid.UUID   `gorm:"type:uuid;index;not null" json:"card_id"`
	Action    AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	OldStatus *string     `gorm:"type:varchar(20)" json:"old_status,omitempty"`
	NewStatus *string     `gorm:"type:varchar(20)" json:"new_status,omitempty"`
	Reason    *string     `gorm:"type:text" json:"reason,omitempty"`
	ChangedBy uuid.UUID   `gorm:"type:uuid;not null" json:"changed_by"`
	ChangedAt time.Time   `gorm:"not null;autoCreateTime" json:"changed_at"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
