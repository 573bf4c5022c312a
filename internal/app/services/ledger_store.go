package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/app/pkg"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
	"github.com/stagepass/giftcard-core/pkg/keylock"
)

const defaultLockWait = 500 * time.Millisecond

// LedgerStore owns persistence for gift cards and their append-only ledger.
// Every mutation goes through an atomic unit: the card row is loaded under an
// exclusive lock, the caller's closure produces the new card state plus the
// ledger entries describing it, and both are committed together or not at
// all. A keyed in-process lock with a bounded wait fronts the database
// transaction so contended callers fail fast with CONTENDED instead of
// queuing without bound.
type LedgerStore struct {
	db       *gorm.DB
	locks    *keylock.Manager
	lockWait time.Duration
	rowLock  bool
}

func NewLedgerStore(db *gorm.DB, locks *keylock.Manager) *LedgerStore {
	wait := defaultLockWait
	if infrastructures.Config != nil {
		if ms, err := strconv.Atoi(infrastructures.Config.LOCK_WAIT_MS); err == nil && ms > 0 {
			wait = time.Duration(ms) * time.Millisecond
		}
	}
	return &LedgerStore{
		db:       db,
		locks:    locks,
		lockWait: wait,
		rowLock:  infrastructures.SupportsRowLocking(db),
	}
}

func (s *LedgerStore) DB() *gorm.DB {
	return s.db
}

// CardMutation receives the locked card and returns the ledger entries to
// append alongside the card state it mutated. Card and entries commit as one
// unit; any error discards everything.
type CardMutation func(tx *gorm.DB, card *models.GiftCard) ([]*models.LedgerEntry, error)

func (s *LedgerStore) WithCardByCode(code string, fn CardMutation) (*models.GiftCard, error) {
	return s.withCard("card:"+code, func(tx *gorm.DB) (*models.GiftCard, error) {
		return s.lockCard(tx, "code = ?", code)
	}, fn)
}

func (s *LedgerStore) WithCardByID(id uuid.UUID, fn CardMutation) (*models.GiftCard, error) {
	// Resolve the immutable code first so every mutation of one card
	// serializes on the same lock key regardless of how it was addressed.
	existing, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.withCard("card:"+existing.Code, func(tx *gorm.DB) (*models.GiftCard, error) {
		return s.lockCard(tx, "id = ?", id)
	}, fn)
}

func (s *LedgerStore) withCard(lockKey string, load func(tx *gorm.DB) (*models.GiftCard, error), fn CardMutation) (*models.GiftCard, error) {
	release, err := s.locks.Acquire(lockKey, s.lockWait)
	if err != nil {
		return nil, apperrors.NewContendedError("Card is busy, retry shortly")
	}
	defer release()

	var card *models.GiftCard
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		card, txErr = load(tx)
		if txErr != nil {
			return txErr
		}

		entries, txErr := fn(tx, card)
		if txErr != nil {
			return txErr
		}

		if txErr := tx.Save(card).Error; txErr != nil {
			return apperrors.NewInternalServerError(txErr, "Failed to update gift card")
		}
		for _, entry := range entries {
			if txErr := tx.Create(entry).Error; txErr != nil {
				return apperrors.NewInternalServerError(txErr, "Failed to append ledger entry")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// IssueMutation builds the new card and its PURCHASE entry while the issuing
// agent's month window is locked. monthTotal is the agent's committed
// issuance total for that window, computed under the same lock so two
// concurrent issuances cannot both pass a limit check they jointly exceed.
type IssueMutation func(tx *gorm.DB, monthTotal models.Money) (*models.GiftCard, *models.LedgerEntry, error)

func (s *LedgerStore) WithAgentMonth(agentID uuid.UUID, at time.Time, fn IssueMutation) (*models.GiftCard, error) {
	lockKey := "issuance:" + agentID.String() + ":" + pkg.MonthKey(at)
	release, err := s.locks.Acquire(lockKey, s.lockWait)
	if err != nil {
		return nil, apperrors.NewContendedError("Issuance window is busy, retry shortly")
	}
	defer release()

	var card *models.GiftCard
	err = s.db.Transaction(func(tx *gorm.DB) error {
		monthTotal, txErr := s.MonthPurchaseTotal(tx, agentID, at)
		if txErr != nil {
			return txErr
		}

		newCard, entry, txErr := fn(tx, monthTotal)
		if txErr != nil {
			return txErr
		}

		if txErr := tx.Create(newCard).Error; txErr != nil {
			return apperrors.NewInternalServerError(txErr, "Failed to create gift card")
		}
		entry.CardID = newCard.ID
		if txErr := tx.Create(entry).Error; txErr != nil {
			return apperrors.NewInternalServerError(txErr, "Failed to append ledger entry")
		}
		card = newCard
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *LedgerStore) lockCard(tx *gorm.DB, query string, arg interface{}) (*models.GiftCard, error) {
	q := tx.Where(query, arg)
	if s.rowLock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var card models.GiftCard
	if err := q.First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("Gift card not found")
		}
		return nil, apperrors.NewInternalServerError(err, "Failed to get gift card")
	}
	return &card, nil
}

func (s *LedgerStore) FindByID(id uuid.UUID) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := s.db.Where("id = ?", id).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("Gift card not found")
		}
		return nil, apperrors.NewInternalServerError(err, "Failed to get gift card")
	}
	return &card, nil
}

func (s *LedgerStore) FindByCode(code string) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := s.db.Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("Gift card not found")
		}
		return nil, apperrors.NewInternalServerError(err, "Failed to get gift card")
	}
	return &card, nil
}

func (s *LedgerStore) CodeExists(tx *gorm.DB, code string) (bool, error) {
	var count int64
	if err := tx.Model(&models.GiftCard{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, apperrors.NewInternalServerError(err, "Failed to check gift card code")
	}
	return count > 0, nil
}

// MonthPurchaseTotal sums the face amounts of PURCHASE entries recorded by
// agentID inside the calendar-month window containing at (UTC boundaries).
func (s *LedgerStore) MonthPurchaseTotal(tx *gorm.DB, agentID uuid.UUID, at time.Time) (models.Money, error) {
	from, to := pkg.MonthWindowUTC(at)

	var total decimal.Decimal
	err := tx.Model(&models.LedgerEntry{}).
		Where("actor_id = ? AND type = ? AND created_at >= ? AND created_at < ?",
			agentID, models.LedgerEntryTypePurchase, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return models.ZeroMoney(), apperrors.NewInternalServerError(err, "Failed to sum monthly issuance")
	}
	return models.NewMoney(total), nil
}

func (s *LedgerStore) SumByType(db *gorm.DB, cardID uuid.UUID, entryType models.LedgerEntryType) (models.Money, error) {
	var total decimal.Decimal
	err := db.Model(&models.LedgerEntry{}).
		Where("card_id = ? AND type = ?", cardID, entryType).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return models.ZeroMoney(), apperrors.NewInternalServerError(err, "Failed to sum ledger entries")
	}
	return models.NewMoney(total), nil
}

func (s *LedgerStore) EntriesForCard(cardID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.Where("card_id = ?", cardID).Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return nil, apperrors.NewInternalServerError(err, "Failed to get ledger entries")
	}
	return entries, nil
}

// FindRedeemEntry looks up a committed REDEEM entry by its service reference,
// used to make crash-retried redemptions idempotent.
func (s *LedgerStore) FindRedeemEntry(tx *gorm.DB, cardID uuid.UUID, serviceType, serviceRef string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := tx.Where("card_id = ? AND type = ? AND service_type = ? AND service_ref = ?",
		cardID, models.LedgerEntryTypeRedeem, serviceType, serviceRef).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalServerError(err, "Failed to check redemption reference")
	}
	return &entry, nil
}

// Reconcile recomputes a card's balance from its ledger and compares it to
// the stored balance: remaining must equal face minus the sum of REDEEM
// entries. AWARD entries record grants, not balance changes, and ADMIN_EDIT
// entries carry amount zero, so neither participates in the sum.
func (s *LedgerStore) Reconcile(cardID uuid.UUID) (*models.ReconcileResult, error) {
	card, err := s.FindByID(cardID)
	if err != nil {
		return nil, err
	}

	redeemed, err := s.SumByType(s.db, cardID, models.LedgerEntryTypeRedeem)
	if err != nil {
		return nil, err
	}

	derived := models.NewMoney(card.FaceAmount.Decimal().Sub(redeemed.Decimal()))
	return &models.ReconcileResult{
		CardID:         card.ID,
		StoredBalance:  card.RemainingBalance,
		DerivedBalance: derived,
		Consistent:     derived.Equal(card.RemainingBalance),
	}, nil
}
