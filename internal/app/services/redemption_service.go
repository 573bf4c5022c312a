package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
)

// RedemptionService coordinates balance debits. A redemption debits the
// card, appends the REDEEM ledger entry and, on full depletion, flips the
// card to Redeemed, all in one atomic unit.
type RedemptionService struct {
	validator *infrastructures.Validator
	store     *LedgerStore
	notifier  *NotificationService
}

func NewRedemptionService(validator *infrastructures.Validator, store *LedgerStore, notifier *NotificationService) *RedemptionService {
	return &RedemptionService{
		validator: validator,
		store:     store,
		notifier:  notifier,
	}
}

// Redeem debits amount from the card identified by code. When the request
// carries a service type and ref that already produced a committed REDEEM
// entry on this card, the original outcome is returned with Replayed set
// instead of debiting twice.
func (s *RedemptionService) Redeem(req *models.RedeemRequest, actor models.Actor) (*models.RedeemResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, errors.NewValidationError("Redemption amount must be greater than zero")
	}

	var newEntry *models.LedgerEntry
	var replayed *models.LedgerEntry

	card, err := s.store.WithCardByCode(req.Code, func(tx *gorm.DB, card *models.GiftCard) ([]*models.LedgerEntry, error) {
		if req.ServiceType != nil && req.ServiceRef != nil {
			existing, err := s.store.FindRedeemEntry(tx, card.ID, *req.ServiceType, *req.ServiceRef)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				replayed = existing
				return nil, nil
			}
		}

		if err := s.authorize(card, actor); err != nil {
			return nil, err
		}

		switch card.Status {
		case models.GiftCardStatusActive:
		case models.GiftCardStatusExpired:
			return nil, errors.NewExpiredError("Gift card has expired")
		default:
			return nil, errors.NewNotActiveError("Gift card is not active")
		}

		now := time.Now()
		if card.ExpiredAt(now) {
			return nil, errors.NewExpiredError("Gift card has expired")
		}

		remaining, err := card.RemainingBalance.Sub(req.Amount)
		if err != nil {
			return nil, errors.NewInsufficientFundsError("Insufficient gift card balance").WithDetails(map[string]any{
				"remaining_balance": card.RemainingBalance,
				"requested_amount":  req.Amount,
			})
		}

		card.RemainingBalance = remaining
		if remaining.IsZero() {
			card.Status = models.GiftCardStatusRedeemed
		}

		newEntry = &models.LedgerEntry{
			CardID:      card.ID,
			Type:        models.LedgerEntryTypeRedeem,
			Amount:      req.Amount,
			Currency:    card.Currency,
			ActorID:     actor.ID,
			ServiceType: req.ServiceType,
			ServiceRef:  req.ServiceRef,
			Description: req.Description,
		}
		return []*models.LedgerEntry{newEntry}, nil
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.CodeExpired {
			s.markExpired(req.Code)
		}
		return nil, err
	}

	if replayed != nil {
		return &models.RedeemResult{
			Code:             card.Code,
			Amount:           replayed.Amount,
			RemainingBalance: card.RemainingBalance,
			Status:           card.Status,
			ServiceType:      replayed.ServiceType,
			ServiceRef:       replayed.ServiceRef,
			EntryID:          replayed.ID,
			Replayed:         true,
		}, nil
	}

	result := &models.RedeemResult{
		Code:             card.Code,
		Amount:           newEntry.Amount,
		RemainingBalance: card.RemainingBalance,
		Status:           card.Status,
		ServiceType:      newEntry.ServiceType,
		ServiceRef:       newEntry.ServiceRef,
		EntryID:          newEntry.ID,
	}
	s.notifier.CardRedeemed(result)
	return result, nil
}

// authorize enforces spending rights. An awarded card is spendable only by
// its recipient; an unawarded card only by the agent who issued it.
func (s *RedemptionService) authorize(card *models.GiftCard, actor models.Actor) error {
	if card.Awarded() {
		if card.RecipientID != nil && *card.RecipientID == actor.ID {
			return nil
		}
		return errors.NewUnauthorizedError("Gift card belongs to another recipient")
	}
	if card.IssuerID == actor.ID {
		return nil
	}
	return errors.NewUnauthorizedError("Gift card has not been awarded to you")
}

// markExpired flips an Active card whose expiry has passed to Expired. It
// runs outside the failed redemption so the status catch-up commits on its
// own; failures are swallowed since the next read repeats the check.
func (s *RedemptionService) markExpired(code string) {
	_, _ = s.store.WithCardByCode(code, func(tx *gorm.DB, card *models.GiftCard) ([]*models.LedgerEntry, error) {
		if card.Status == models.GiftCardStatusActive && card.ExpiredAt(time.Now()) {
			card.Status = models.GiftCardStatusExpired
		}
		return nil, nil
	})
}
