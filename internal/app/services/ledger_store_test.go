package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
)

func TestWithCardRollsBackOnMutationError(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	card := issueCard(t, env, agent, "100.00")

	_, err := env.store.WithCardByCode(card.Code, func(tx *gorm.DB, c *models.GiftCard) ([]*models.LedgerEntry, error) {
		c.RemainingBalance = models.ZeroMoney()
		c.Status = models.GiftCardStatusRedeemed
		return []*models.LedgerEntry{{
			CardID:   c.ID,
			Type:     models.LedgerEntryTypeRedeem,
			Amount:   money(t, "100.00"),
			Currency: "USD",
			ActorID:  agent.ID,
		}}, apperrors.NewInternalServerError(gorm.ErrInvalidData, "boom")
	})
	if err == nil {
		t.Fatal("expected mutation error")
	}

	reloaded, err := env.store.FindByCode(card.Code)
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if !reloaded.RemainingBalance.Equal(money(t, "100.00")) {
		t.Errorf("balance = %s, rollback should restore 100.00", reloaded.RemainingBalance)
	}
	if reloaded.Status != models.GiftCardStatusActive {
		t.Errorf("status = %s, rollback should restore ACTIVE", reloaded.Status)
	}

	entries, err := env.store.EntriesForCard(card.ID)
	if err != nil {
		t.Fatalf("EntriesForCard: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the PURCHASE entry, got %d entries", len(entries))
	}
}

func TestWithCardContendedAfterWait(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	card := issueCard(t, env, agent, "100.00")
	env.store.lockWait = 30 * time.Millisecond

	release, err := env.store.locks.Acquire("card:"+card.Code, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	_, err = env.store.WithCardByCode(card.Code, func(tx *gorm.DB, c *models.GiftCard) ([]*models.LedgerEntry, error) {
		return nil, nil
	})
	assertAppError(t, err, apperrors.CodeContended)
}

func TestWithCardByIDAndByCodeShareOneLock(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	card := issueCard(t, env, agent, "100.00")
	env.store.lockWait = 30 * time.Millisecond

	release, err := env.store.locks.Acquire("card:"+card.Code, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	// Addressing the card by ID must serialize on the same key.
	_, err = env.store.WithCardByID(card.ID, func(tx *gorm.DB, c *models.GiftCard) ([]*models.LedgerEntry, error) {
		return nil, nil
	})
	assertAppError(t, err, apperrors.CodeContended)
}

func TestMonthPurchaseTotalWindow(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	issueCard(t, env, agent, "100.00")
	issueCard(t, env, agent, "200.00")

	// A purchase from last month must not count toward this window.
	lastMonth := models.LedgerEntry{
		ID:       uuid.New(),
		CardID:   uuid.New(),
		Type:     models.LedgerEntryTypePurchase,
		Amount:   money(t, "999.00"),
		Currency: "USD",
		ActorID:  agent.ID,
	}
	if err := env.db.Create(&lastMonth).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}
	past := time.Now().UTC().AddDate(0, -1, 0)
	if err := env.db.Model(&models.LedgerEntry{}).Where("id = ?", lastMonth.ID).Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate entry: %v", err)
	}

	// Another agent's purchases are scoped out too.
	issueCard(t, env, testAgent(), "500.00")

	total, err := env.store.MonthPurchaseTotal(env.db, agent.ID, time.Now())
	if err != nil {
		t.Fatalf("MonthPurchaseTotal: %v", err)
	}
	if !total.Equal(money(t, "300.00")) {
		t.Errorf("month total = %s, want 300.00", total)
	}
}

func TestFindRedeemEntryAbsent(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	card := issueCard(t, env, agent, "100.00")

	entry, err := env.store.FindRedeemEntry(env.db, card.ID, "booking", "bk_1")
	if err != nil {
		t.Fatalf("FindRedeemEntry: %v", err)
	}
	if entry != nil {
		t.Errorf("expected no entry, got %+v", entry)
	}
}
