package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
)

// maxCodeAttempts bounds code generation retries before the issuance fails
// with CODE_GENERATION_EXHAUSTED.
const maxCodeAttempts = 10

// GiftCardService is the card lifecycle manager: issuance, awarding and
// operator status transitions. Balance debits live in RedemptionService.
type GiftCardService struct {
	validator    *infrastructures.Validator
	store        *LedgerStore
	limitService *LimitService
	auditService *AuditService
	notifier     *NotificationService
}

func NewGiftCardService(
	validator *infrastructures.Validator,
	store *LedgerStore,
	limitService *LimitService,
	auditService *AuditService,
	notifier *NotificationService,
) *GiftCardService {
	return &GiftCardService{
		validator:    validator,
		store:        store,
		limitService: limitService,
		auditService: auditService,
		notifier:     notifier,
	}
}

// Issue creates an Active card funded at faceAmount and appends its PURCHASE
// ledger entry in the same atomic unit. Non-admin agents are checked against
// the monthly issuance cap inside that unit, while the agent-month key is
// locked, so concurrent issuances cannot jointly exceed the cap.
func (s *GiftCardService) Issue(req *models.GiftCardIssueRequest, issuer models.Actor) (*models.GiftCard, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.FaceAmount.IsPositive() {
		return nil, errors.NewValidationError("Face amount must be greater than zero")
	}

	expiryDays := req.ExpiryDays
	if expiryDays == 0 {
		expiryDays = models.MaxExpiryDays
	}
	if expiryDays < 1 || expiryDays > models.MaxExpiryDays {
		return nil, errors.NewValidationError(fmt.Sprintf("Expiry days must be between 1 and %d", models.MaxExpiryDays))
	}

	now := time.Now()

	card, err := s.store.WithAgentMonth(issuer.ID, now, func(tx *gorm.DB, monthTotal models.Money) (*models.GiftCard, *models.LedgerEntry, error) {
		if _, err := s.limitService.DecideOrFail(monthTotal, issuer.IsAdminAgent(), req.FaceAmount); err != nil {
			return nil, nil, err
		}

		code, err := s.generateCode(tx)
		if err != nil {
			return nil, nil, err
		}

		card := &models.GiftCard{
			Code:             code,
			FaceAmount:       req.FaceAmount,
			RemainingBalance: req.FaceAmount,
			Currency:         req.Currency,
			Status:           models.GiftCardStatusActive,
			IssuerID:         issuer.ID,
			RecipientEmail:   req.RecipientEmail,
			RecipientType:    req.RecipientType,
			Message:          req.Message,
			IssuedAt:         now,
			ExpiresAt:        now.AddDate(0, 0, expiryDays),
		}

		description := "Gift card purchase"
		entry := &models.LedgerEntry{
			Type:        models.LedgerEntryTypePurchase,
			Amount:      req.FaceAmount,
			Currency:    req.Currency,
			ActorID:     issuer.ID,
			ServiceRef:  req.PaymentRef,
			Description: &description,
		}

		return card, entry, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.CardIssued(card)
	return card, nil
}

// Award assigns spending rights on an Active, unawarded card and records the
// grant as an AWARD ledger entry carrying the face amount. The entry is an
// audit record, not a balance change.
func (s *GiftCardService) Award(cardID string, req *models.GiftCardAwardRequest, actor models.Actor) (*models.GiftCard, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	id, err := parseUUID(cardID, "card ID")
	if err != nil {
		return nil, err
	}
	recipientID, err := parseUUID(req.RecipientID, "recipient ID")
	if err != nil {
		return nil, err
	}

	card, err := s.store.WithCardByID(id, func(tx *gorm.DB, card *models.GiftCard) ([]*models.LedgerEntry, error) {
		if !actor.IsOperator() && card.IssuerID != actor.ID {
			return nil, errors.NewUnauthorizedError("Only the issuer may award this card")
		}
		if card.Awarded() {
			return nil, errors.NewAlreadyAwardedError("Gift card is already awarded")
		}
		if card.Status != models.GiftCardStatusActive {
			return nil, errors.NewNotActiveError("Gift card is not active")
		}

		now := time.Now()
		recipientType := req.RecipientType
		card.RecipientID = &recipientID
		card.RecipientType = &recipientType
		card.AwardedAt = &now

		return []*models.LedgerEntry{awardEntry(card, actor.ID)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.CardAwarded(card)
	return card, nil
}

// Suspend is a reversible operator hold on an Active card.
func (s *GiftCardService) Suspend(cardID string, req *models.GiftCardStatusRequest, actor models.Actor) (*models.GiftCard, error) {
	return s.transition(cardID, req, actor, models.AuditActionSuspend, func(card *models.GiftCard) error {
		if card.Status != models.GiftCardStatusActive {
			return errors.NewNotActiveError("Only active gift cards can be suspended")
		}
		card.Status = models.GiftCardStatusSuspended
		return nil
	})
}

func (s *GiftCardService) Unsuspend(cardID string, req *models.GiftCardStatusRequest, actor models.Actor) (*models.GiftCard, error) {
	return s.transition(cardID, req, actor, models.AuditActionUnsuspend, func(card *models.GiftCard) error {
		if card.Status != models.GiftCardStatusSuspended {
			return errors.NewNotActiveError("Only suspended gift cards can be unsuspended")
		}
		card.Status = models.GiftCardStatusActive
		return nil
	})
}

// Cancel is terminal. The row stays; only the status changes.
func (s *GiftCardService) Cancel(cardID string, req *models.GiftCardStatusRequest, actor models.Actor) (*models.GiftCard, error) {
	return s.transition(cardID, req, actor, models.AuditActionCancel, func(card *models.GiftCard) error {
		if card.Status != models.GiftCardStatusActive && card.Status != models.GiftCardStatusSuspended {
			return errors.NewImmutableStateError("Gift card can no longer be cancelled")
		}
		card.Status = models.GiftCardStatusCancelled
		return nil
	})
}

func (s *GiftCardService) transition(cardID string, req *models.GiftCardStatusRequest, actor models.Actor, action models.AuditAction, apply func(card *models.GiftCard) error) (*models.GiftCard, error) {
	if req != nil {
		if err := s.validator.Validate(req); err != nil {
			return nil, err
		}
	}
	if !actor.IsOperator() {
		return nil, errors.NewUnauthorizedError("Operator role required")
	}

	id, err := parseUUID(cardID, "card ID")
	if err != nil {
		return nil, err
	}

	var reason *string
	if req != nil {
		reason = req.Reason
	}

	return s.store.WithCardByID(id, func(tx *gorm.DB, card *models.GiftCard) ([]*models.LedgerEntry, error) {
		oldStatus := card.Status
		if err := apply(card); err != nil {
			return nil, err
		}
		if reason != nil {
			appendAdminNote(card, *reason)
		}
		if err := s.auditService.LogCardAction(tx, card.ID, action, oldStatus, card.Status, reason, actor.ID); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// EditAllocation adjusts a card's face amount and/or recipient. A face
// change recalculates the remaining balance: what was already spent stays
// spent, and the result never goes below zero. Every edit
// appends an amount-0 ADMIN_EDIT entry; a newly assigned recipient also gets
// an AWARD entry.
func (s *GiftCardService) EditAllocation(cardID string, req *models.GiftCardEditRequest, actor models.Actor) (*models.GiftCard, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, errors.NewUnauthorizedError("Operator role required")
	}
	if req.NewFaceAmount == nil && req.NewRecipientID == nil && req.Note == nil {
		return nil, errors.NewValidationError("Edit request must change something")
	}
	if req.NewFaceAmount != nil && !req.NewFaceAmount.IsPositive() {
		return nil, errors.NewValidationError("Face amount must be greater than zero")
	}

	id, err := parseUUID(cardID, "card ID")
	if err != nil {
		return nil, err
	}

	var newRecipientID *uuid.UUID
	if req.NewRecipientID != nil {
		parsed, err := parseUUID(*req.NewRecipientID, "recipient ID")
		if err != nil {
			return nil, err
		}
		newRecipientID = &parsed
	}

	return s.store.WithCardByID(id, func(tx *gorm.DB, card *models.GiftCard) ([]*models.LedgerEntry, error) {
		if card.Status == models.GiftCardStatusRedeemed || card.Status == models.GiftCardStatusCancelled {
			return nil, errors.NewImmutableStateError("Gift card allocation can no longer be edited")
		}

		var entries []*models.LedgerEntry
		changes := ""

		if req.NewFaceAmount != nil {
			spent := card.FaceAmount.Decimal().Sub(card.RemainingBalance.Decimal())
			newRemaining := req.NewFaceAmount.Decimal().Sub(spent)
			if newRemaining.IsNegative() {
				newRemaining = decimal.Zero
			}
			changes += fmt.Sprintf("face %s -> %s; ", card.FaceAmount, *req.NewFaceAmount)
			card.FaceAmount = *req.NewFaceAmount
			card.RemainingBalance = models.NewMoney(newRemaining)
		}

		if newRecipientID != nil {
			newlyAssigned := !card.Awarded()
			now := time.Now()
			card.RecipientID = newRecipientID
			card.RecipientType = req.NewRecipientType
			if newlyAssigned {
				card.AwardedAt = &now
				entries = append(entries, awardEntry(card, actor.ID))
			}
			changes += fmt.Sprintf("recipient -> %s; ", newRecipientID)
		}

		if req.Note != nil {
			appendAdminNote(card, *req.Note)
		}

		oldStatus := card.Status
		description := "Allocation edit: " + changes
		entries = append(entries, &models.LedgerEntry{
			CardID:      card.ID,
			Type:        models.LedgerEntryTypeAdminEdit,
			Amount:      models.ZeroMoney(),
			Currency:    card.Currency,
			ActorID:     actor.ID,
			Description: &description,
		})

		if err := s.auditService.LogCardAction(tx, card.ID, models.AuditActionEdit, oldStatus, card.Status, req.Note, actor.ID); err != nil {
			return nil, err
		}
		return entries, nil
	})
}

func (s *GiftCardService) GetCard(cardID string) (*models.GiftCard, error) {
	id, err := parseUUID(cardID, "card ID")
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(id)
}

func (s *GiftCardService) GetCardByCode(code string) (*models.GiftCard, error) {
	return s.store.FindByCode(code)
}

func (s *GiftCardService) ListByIssuer(issuerID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.GiftCard], error) {
	return s.listCards("issuer_id = ?", issuerID, pagination)
}

func (s *GiftCardService) ListByRecipient(recipientID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.GiftCard], error) {
	return s.listCards("recipient_id = ?", recipientID, pagination)
}

func (s *GiftCardService) listCards(query string, arg interface{}, pagination *models.PaginationRequest) (*models.Pagination[[]models.GiftCard], error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 10
	}
	if pagination.Page <= 0 {
		pagination.Page = 1
	}

	offset := (pagination.Page - 1) * pagination.Limit
	db := s.store.DB()

	var totalItems int64
	if err := db.Model(&models.GiftCard{}).Where(query, arg).Count(&totalItems).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to count gift cards")
	}

	var cards []models.GiftCard
	err := db.Where(query, arg).
		Order("created_at DESC").
		Limit(pagination.Limit).
		Offset(offset).
		Find(&cards).Error
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to list gift cards")
	}

	totalPages := int((totalItems + int64(pagination.Limit) - 1) / int64(pagination.Limit))
	return &models.Pagination[[]models.GiftCard]{
		Page:       pagination.Page,
		Limit:      pagination.Limit,
		TotalPages: totalPages,
		TotalItems: int(totalItems),
		HasNext:    pagination.Page < totalPages,
		HasPrev:    pagination.Page > 1,
		Items:      cards,
	}, nil
}

func (s *GiftCardService) generateCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := pkg.GiftCardCode()
		if err != nil {
			return "", errors.NewInternalServerError(err, "Failed to generate gift card code")
		}
		exists, err := s.store.CodeExists(tx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.NewCodeGenerationExhaustedError("Could not generate a unique gift card code")
}

func awardEntry(card *models.GiftCard, actorID uuid.UUID) *models.LedgerEntry {
	description := "Awarded to recipient"
	return &models.LedgerEntry{
		CardID:      card.ID,
		Type:        models.LedgerEntryTypeAward,
		Amount:      card.FaceAmount,
		Currency:    card.Currency,
		ActorID:     actorID,
		Description: &description,
	}
}

func appendAdminNote(card *models.GiftCard, note string) {
	stamped := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), note)
	if card.AdminNotes != nil && *card.AdminNotes != "" {
		stamped = *card.AdminNotes + "\n" + stamped
	}
	card.AdminNotes = &stamped
}

func parseUUID(id, fieldName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(fmt.Sprintf("Invalid %s format", fieldName))
	}
	return parsed, nil
}
