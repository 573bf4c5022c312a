package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
)

// AuditService records operator actions (suspend, unsuspend, cancel, edit)
// against gift cards. These move no money, so they appear here rather than
// in the value ledger.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// LogCardAction writes an audit row inside the caller's transaction so the
// audit trail commits with the action it describes.
func (s *AuditService) LogCardAction(tx *gorm.DB, cardID uuid.UUID, action models.AuditAction, oldStatus, newStatus models.GiftCardStatus, reason *string, changedBy uuid.UUID) error {
	oldStr := string(oldStatus)
	newStr := string(newStatus)
	log := &models.AuditLog{
		CardID:    cardID,
		Action:    action,
		OldStatus: &oldStr,
		NewStatus: &newStr,
		Reason:    reason,
		ChangedBy: changedBy,
	}

	if err := tx.Create(log).Error; err != nil {
		return errors.NewInternalServerError(err, "Failed to create audit log")
	}
	return nil
}

// GetCardAuditLogs retrieves the operator audit trail for a card.
func (s *AuditService) GetCardAuditLogs(cardID uuid.UUID) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := s.db.Where("card_id = ?", cardID).
		Order("changed_at DESC").
		Find(&logs).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get audit logs")
	}
	return logs, nil
}
