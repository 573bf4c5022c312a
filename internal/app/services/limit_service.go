package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
)

const defaultMonthlyCap = "5000.00"

// LimitService computes a booking agent's issuance total for the current
// calendar month (UTC boundaries, see pkg.MonthWindowUTC) and decides
// whether a proposed issuance fits under the cap. CheckLimit is advisory;
// the binding evaluation happens inside the issuance atomic unit while the
// agent-month key is locked.
type LimitService struct {
	store *LedgerStore
	cap   models.Money
}

func NewLimitService(store *LedgerStore) *LimitService {
	raw := defaultMonthlyCap
	if infrastructures.Config != nil && infrastructures.Config.MONTHLY_ISSUANCE_CAP != "" {
		raw = infrastructures.Config.MONTHLY_ISSUANCE_CAP
	}
	capAmount, err := models.NewMoneyFromString(raw)
	if err != nil {
		capAmount, _ = models.NewMoneyFromString(defaultMonthlyCap)
	}
	return &LimitService{
		store: store,
		cap:   capAmount,
	}
}

// CheckLimit is the advisory, read-only entry point.
func (s *LimitService) CheckLimit(agentID uuid.UUID, isAdmin bool, proposed models.Money) (*models.LimitCheckResult, error) {
	if proposed.IsNegative() {
		return nil, errors.NewValidationError("Proposed amount must not be negative")
	}
	return s.Evaluate(s.store.DB(), agentID, isAdmin, proposed, time.Now())
}

// Evaluate computes the month total against the given DB handle and decides.
func (s *LimitService) Evaluate(db *gorm.DB, agentID uuid.UUID, isAdmin bool, proposed models.Money, at time.Time) (*models.LimitCheckResult, error) {
	if isAdmin {
		return s.Decide(models.ZeroMoney(), true, proposed), nil
	}

	total, err := s.store.MonthPurchaseTotal(db, agentID, at)
	if err != nil {
		return nil, err
	}
	return s.Decide(total, false, proposed), nil
}

// Decide is the pure limit decision for an already-computed month total.
// Admin-flagged agents are always within limit.
func (s *LimitService) Decide(monthTotal models.Money, isAdmin bool, proposed models.Money) *models.LimitCheckResult {
	if isAdmin {
		return &models.LimitCheckResult{
			IsAdminAgent:      true,
			WithinLimit:       true,
			CurrentMonthTotal: monthTotal,
			LimitAmount:       models.ZeroMoney(),
			RemainingAmount:   models.ZeroMoney(),
		}
	}

	projected := monthTotal.Add(proposed)
	within := !projected.GreaterThan(s.cap)

	remaining := models.ZeroMoney()
	if diff, err := s.cap.Sub(monthTotal); err == nil {
		remaining = diff
	}

	return &models.LimitCheckResult{
		IsAdminAgent:      false,
		WithinLimit:       within,
		CurrentMonthTotal: monthTotal,
		LimitAmount:       s.cap,
		RemainingAmount:   remaining,
	}
}

// DecideOrFail converts a failed decision into the structured
// MONTHLY_LIMIT_EXCEEDED error issuance surfaces.
func (s *LimitService) DecideOrFail(monthTotal models.Money, isAdmin bool, proposed models.Money) (*models.LimitCheckResult, error) {
	result := s.Decide(monthTotal, isAdmin, proposed)
	if !result.WithinLimit {
		return nil, errors.NewMonthlyLimitExceededError("Monthly issuance limit exceeded").WithDetails(map[string]any{
			"current_month_total": result.CurrentMonthTotal.String(),
			"limit_amount":        result.LimitAmount.String(),
			"remaining_amount":    result.RemainingAmount.String(),
		})
	}
	return result, nil
}
