package services

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
)

var cardCodePattern = regexp.MustCompile(`^GC-[0-9A-Z]{6}-[0-9A-Z]{6}$`)

func TestIssueCreatesCardWithPurchaseEntry(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()
	paymentRef := "pay_123"

	card, err := env.giftCards.Issue(&models.GiftCardIssueRequest{
		FaceAmount: money(t, "100.00"),
		Currency:   "USD",
		PaymentRef: &paymentRef,
	}, agent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !cardCodePattern.MatchString(card.Code) {
		t.Errorf("code %q does not match expected format", card.Code)
	}
	if card.Status != models.GiftCardStatusActive {
		t.Errorf("status = %s, want ACTIVE", card.Status)
	}
	if !card.RemainingBalance.Equal(card.FaceAmount) {
		t.Errorf("remaining %s != face %s", card.RemainingBalance, card.FaceAmount)
	}
	if card.Awarded() {
		t.Error("fresh card should not be awarded")
	}

	entries, err := env.store.EntriesForCard(card.ID)
	if err != nil {
		t.Fatalf("EntriesForCard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Type != models.LedgerEntryTypePurchase {
		t.Errorf("entry type = %s, want PURCHASE", entry.Type)
	}
	if !entry.Amount.Equal(card.FaceAmount) {
		t.Errorf("entry amount = %s, want %s", entry.Amount, card.FaceAmount)
	}
	if entry.ActorID != agent.ID {
		t.Errorf("entry actor = %s, want issuer %s", entry.ActorID, agent.ID)
	}
	if entry.ServiceRef == nil || *entry.ServiceRef != paymentRef {
		t.Errorf("entry service_ref = %v, want %s", entry.ServiceRef, paymentRef)
	}
}

func TestIssueRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.giftCards.Issue(&models.GiftCardIssueRequest{
		FaceAmount: models.ZeroMoney(),
		Currency:   "USD",
	}, testAgent())
	assertAppError(t, err, apperrors.CodeValidation)
}

func TestIssueDefaultExpiry(t *testing.T) {
	env := newTestEnv(t)

	card := issueCard(t, env, testAgent(), "50.00")

	want := card.IssuedAt.AddDate(0, 0, models.MaxExpiryDays)
	if !card.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %s, want %s", card.ExpiresAt, want)
	}
}

func TestIssueMonthlyLimit(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	// Reaching the cap exactly is allowed.
	issueCard(t, env, agent, "3000.00")
	issueCard(t, env, agent, "2000.00")

	_, err := env.giftCards.Issue(&models.GiftCardIssueRequest{
		FaceAmount: money(t, "0.01"),
		Currency:   "USD",
	}, agent)
	appErr := assertAppError(t, err, apperrors.CodeMonthlyLimitExceeded)
	if appErr.Details["current_month_total"] != "5000.00" {
		t.Errorf("details current_month_total = %v, want 5000.00", appErr.Details["current_month_total"])
	}

	// Admin-flagged agents are exempt.
	admin := models.Actor{ID: uuid.New(), Role: models.RoleAdminAgent}
	issueCard(t, env, admin, "9000.00")
}

func TestIssueMonthlyLimitUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.giftCards.Issue(&models.GiftCardIssueRequest{
				FaceAmount: money(t, "1000.00"),
				Currency:   "USD",
			}, agent)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		appErr, ok := err.(*apperrors.AppError)
		if !ok {
			t.Fatalf("unexpected error type %T: %v", err, err)
		}
		if appErr.Code != apperrors.CodeMonthlyLimitExceeded && appErr.Code != apperrors.CodeContended {
			t.Fatalf("unexpected error code %s", appErr.Code)
		}
	}

	if successes > 5 {
		t.Errorf("%d issuances succeeded, cap allows at most 5", successes)
	}

	total, err := env.store.MonthPurchaseTotal(env.db, agent.ID, time.Now())
	if err != nil {
		t.Fatalf("MonthPurchaseTotal: %v", err)
	}
	if total.GreaterThan(money(t, "5000.00")) {
		t.Errorf("committed month total %s exceeds the cap", total)
	}
}

func TestAwardAssignsRecipientOnce(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()
	recipient := uuid.New()

	card := issueCard(t, env, agent, "100.00")
	awarded := awardCard(t, env, card, agent, recipient)

	if awarded.RecipientID == nil || *awarded.RecipientID != recipient {
		t.Fatalf("recipient = %v, want %s", awarded.RecipientID, recipient)
	}
	if awarded.AwardedAt == nil {
		t.Error("awarded_at not set")
	}

	entries, err := env.store.EntriesForCard(card.ID)
	if err != nil {
		t.Fatalf("EntriesForCard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected PURCHASE + AWARD entries, got %d", len(entries))
	}
	award := entries[1]
	if award.Type != models.LedgerEntryTypeAward {
		t.Errorf("entry type = %s, want AWARD", award.Type)
	}
	if !award.Amount.Equal(card.FaceAmount) {
		t.Errorf("award amount = %s, want face %s", award.Amount, card.FaceAmount)
	}

	// A second award must be rejected.
	_, err = env.giftCards.Award(card.ID.String(), &models.GiftCardAwardRequest{
		RecipientID:   uuid.New().String(),
		RecipientType: models.RecipientTypeUser,
	}, agent)
	assertAppError(t, err, apperrors.CodeAlreadyAwarded)
}

func TestAwardRequiresIssuerOrOperator(t *testing.T) {
	env := newTestEnv(t)
	card := issueCard(t, env, testAgent(), "100.00")

	stranger := testAgent()
	_, err := env.giftCards.Award(card.ID.String(), &models.GiftCardAwardRequest{
		RecipientID:   uuid.New().String(),
		RecipientType: models.RecipientTypeUser,
	}, stranger)
	assertAppError(t, err, apperrors.CodeUnauthorized)

	// Operators may award on the issuer's behalf.
	awardCard(t, env, card, testOperator(), uuid.New())
}

func TestSuspendUnsuspendCancel(t *testing.T) {
	env := newTestEnv(t)
	operator := testOperator()
	agent := testAgent()
	reason := "fraud review"

	card := issueCard(t, env, agent, "100.00")

	// Non-operators cannot change status.
	_, err := env.giftCards.Suspend(card.ID.String(), &models.GiftCardStatusRequest{}, agent)
	assertAppError(t, err, apperrors.CodeUnauthorized)

	suspended, err := env.giftCards.Suspend(card.ID.String(), &models.GiftCardStatusRequest{Reason: &reason}, operator)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if suspended.Status != models.GiftCardStatusSuspended {
		t.Errorf("status = %s, want SUSPENDED", suspended.Status)
	}

	// Suspending twice is rejected.
	_, err = env.giftCards.Suspend(card.ID.String(), &models.GiftCardStatusRequest{}, operator)
	assertAppError(t, err, apperrors.CodeNotActive)

	restored, err := env.giftCards.Unsuspend(card.ID.String(), &models.GiftCardStatusRequest{}, operator)
	if err != nil {
		t.Fatalf("Unsuspend: %v", err)
	}
	if restored.Status != models.GiftCardStatusActive {
		t.Errorf("status = %s, want ACTIVE", restored.Status)
	}

	cancelled, err := env.giftCards.Cancel(card.ID.String(), &models.GiftCardStatusRequest{}, operator)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.GiftCardStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}

	// Cancellation is terminal.
	_, err = env.giftCards.Cancel(card.ID.String(), &models.GiftCardStatusRequest{}, operator)
	assertAppError(t, err, apperrors.CodeImmutableState)
	_, err = env.giftCards.Unsuspend(card.ID.String(), &models.GiftCardStatusRequest{}, operator)
	assertAppError(t, err, apperrors.CodeNotActive)

	logs, err := env.audits.GetCardAuditLogs(card.ID)
	if err != nil {
		t.Fatalf("GetCardAuditLogs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 audit rows, got %d", len(logs))
	}
	found := false
	for _, log := range logs {
		if log.Action == models.AuditActionSuspend && log.Reason != nil && *log.Reason == reason {
			found = true
		}
	}
	if !found {
		t.Error("suspend audit row with reason not found")
	}
}

func TestEditAllocationFaceAmount(t *testing.T) {
	env := newTestEnv(t)
	operator := testOperator()
	agent := testAgent()

	card := issueCard(t, env, agent, "100.00")

	// Spend 30 so the edit has to preserve the spent portion.
	_, err := env.redemption.Redeem(&models.RedeemRequest{
		Code:   card.Code,
		Amount: money(t, "30.00"),
	}, agent)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	newFace := money(t, "50.00")
	edited, err := env.giftCards.EditAllocation(card.ID.String(), &models.GiftCardEditRequest{
		NewFaceAmount: &newFace,
	}, operator)
	if err != nil {
		t.Fatalf("EditAllocation: %v", err)
	}
	if !edited.RemainingBalance.Equal(money(t, "20.00")) {
		t.Errorf("remaining = %s, want 20.00", edited.RemainingBalance)
	}

	// Shrinking below the spent portion floors the balance at zero and
	// leaves the status untouched.
	smaller := money(t, "25.00")
	edited, err = env.giftCards.EditAllocation(card.ID.String(), &models.GiftCardEditRequest{
		NewFaceAmount: &smaller,
	}, operator)
	if err != nil {
		t.Fatalf("EditAllocation: %v", err)
	}
	if !edited.RemainingBalance.IsZero() {
		t.Errorf("remaining = %s, want 0.00", edited.RemainingBalance)
	}
	if edited.Status != models.GiftCardStatusActive {
		t.Errorf("status = %s, want ACTIVE", edited.Status)
	}

	entries, err := env.store.EntriesForCard(card.ID)
	if err != nil {
		t.Fatalf("EntriesForCard: %v", err)
	}
	adminEdits := 0
	for _, entry := range entries {
		if entry.Type == models.LedgerEntryTypeAdminEdit {
			adminEdits++
			if !entry.Amount.IsZero() {
				t.Errorf("ADMIN_EDIT amount = %s, want 0", entry.Amount)
			}
		}
	}
	if adminEdits != 2 {
		t.Errorf("expected 2 ADMIN_EDIT entries, got %d", adminEdits)
	}
}

func TestEditAllocationAssignsRecipient(t *testing.T) {
	env := newTestEnv(t)
	operator := testOperator()

	card := issueCard(t, env, testAgent(), "100.00")

	recipientID := uuid.New().String()
	recipientType := models.RecipientTypeVenue
	edited, err := env.giftCards.EditAllocation(card.ID.String(), &models.GiftCardEditRequest{
		NewRecipientID:   &recipientID,
		NewRecipientType: &recipientType,
	}, operator)
	if err != nil {
		t.Fatalf("EditAllocation: %v", err)
	}
	if !edited.Awarded() {
		t.Fatal("card should be awarded after recipient assignment")
	}

	entries, err := env.store.EntriesForCard(card.ID)
	if err != nil {
		t.Fatalf("EntriesForCard: %v", err)
	}
	hasAward := false
	for _, entry := range entries {
		if entry.Type == models.LedgerEntryTypeAward {
			hasAward = true
		}
	}
	if !hasAward {
		t.Error("expected AWARD entry for newly assigned recipient")
	}
}

func TestEditAllocationImmutableStates(t *testing.T) {
	env := newTestEnv(t)
	operator := testOperator()
	agent := testAgent()

	card := issueCard(t, env, agent, "100.00")
	if _, err := env.giftCards.Cancel(card.ID.String(), &models.GiftCardStatusRequest{}, operator); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	newFace := money(t, "50.00")
	_, err := env.giftCards.EditAllocation(card.ID.String(), &models.GiftCardEditRequest{
		NewFaceAmount: &newFace,
	}, operator)
	assertAppError(t, err, apperrors.CodeImmutableState)
}

func TestListByIssuerPagination(t *testing.T) {
	env := newTestEnv(t)
	agent := testAgent()

	for i := 0; i < 5; i++ {
		issueCard(t, env, agent, "10.00")
	}

	page, err := env.giftCards.ListByIssuer(agent.ID, &models.PaginationRequest{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListByIssuer: %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("page size = %d, want 2", len(page.Items))
	}
	if page.TotalItems != 5 {
		t.Errorf("total items = %d, want 5", page.TotalItems)
	}
	if page.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", page.TotalPages)
	}
	if !page.HasNext || page.HasPrev {
		t.Errorf("HasNext=%v HasPrev=%v, want true/false", page.HasNext, page.HasPrev)
	}
}
