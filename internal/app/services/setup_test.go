package services

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
	"github.com/stagepass/giftcard-core/pkg/keylock"
)

// testEnv wires the full service graph against an in-memory SQLite
// database. Notifications run with no Redis client and become no-ops.
type testEnv struct {
	db         *gorm.DB
	store      *LedgerStore
	giftCards  *GiftCardService
	redemption *RedemptionService
	reports    *ReportService
	limits     *LimitService
	audits     *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := infrastructures.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := infrastructures.Migrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}

	validator := infrastructures.NewValidator()
	store := NewLedgerStore(db, keylock.NewManager())
	limits := NewLimitService(store)
	audits := NewAuditService(db)
	notifier := NewNotificationService(nil)

	return &testEnv{
		db:         db,
		store:      store,
		giftCards:  NewGiftCardService(validator, store, limits, audits, notifier),
		redemption: NewRedemptionService(validator, store, notifier),
		reports:    NewReportService(store),
		limits:     limits,
		audits:     audits,
	}
}

func assertAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}

func testAgent() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleAgent}
}

func testOperator() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleOperator}
}

func money(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}

func issueCard(t *testing.T, env *testEnv, issuer models.Actor, amount string) *models.GiftCard {
	t.Helper()
	card, err := env.giftCards.Issue(&models.GiftCardIssueRequest{
		FaceAmount: money(t, amount),
		Currency:   "USD",
	}, issuer)
	if err != nil {
		t.Fatalf("issue card: %v", err)
	}
	return card
}

func awardCard(t *testing.T, env *testEnv, card *models.GiftCard, actor models.Actor, recipientID uuid.UUID) *models.GiftCard {
	t.Helper()
	awarded, err := env.giftCards.Award(card.ID.String(), &models.GiftCardAwardRequest{
		RecipientID:   recipientID.String(),
		RecipientType: models.RecipientTypeUser,
	}, actor)
	if err != nil {
		t.Fatalf("award card: %v", err)
	}
	return awarded
}
