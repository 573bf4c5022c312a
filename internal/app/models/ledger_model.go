package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerEntryType string

const (
	// LedgerEntryTypePurchase records a card's initial funding.
	LedgerEntryTypePurchase LedgerEntryType = "PURCHASE"
	// LedgerEntryTypeAward records the grant of spending rights; it carries
	// the face amount for traceability but does not move balance.
	LedgerEntryTypeAward LedgerEntryType = "AWARD"
	// LedgerEntryTypeRedeem is the only balance debit.
	LedgerEntryTypeRedeem LedgerEntryType = "REDEEM"
	// LedgerEntryTypeAdminEdit is an amount-0 audit marker for operator
	// allocation edits.
	LedgerEntryTypeAdminEdit LedgerEntryType = "ADMIN_EDIT"
)

// LedgerEntry is an append-only record of one value-moving event against a
// card. Entries are created inside the same atomic unit as the card mutation
// they describe and are never updated or deleted.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CardID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"card_id"`
	Type        LedgerEntryType `gorm:"type:varchar(20);index;not null" json:"type"`
	Amount      Money           `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	ActorID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"actor_id"`
	ServiceType *string         `gorm:"type:varchar(50);index" json:"service_type,omitempty"`
	ServiceRef  *string         `gorm:"type:varchar(100);index" json:"service_ref,omitempty"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `gorm:"index;autoCreateTime" json:"created_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type RedeemRequest struct {
	Code        string  `json:"code" validate:"required,max=20"`
	Amount      Money   `json:"amount" validate:"required"`
	ServiceType *string `json:"service_type,omitempty" validate:"omitempty,max=50"`
	ServiceRef  *string `json:"service_ref,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type RedeemResult struct {
	Code             string         `json:"code"`
	Amount           Money          `json:"amount"`
	RemainingBalance Money          `json:"remaining_balance"`
	Status           GiftCardStatus `json:"status"`
	ServiceType      *string        `json:"service_type,omitempty"`
	ServiceRef       *string        `json:"service_ref,omitempty"`
	EntryID          uuid.UUID      `json:"entry_id"`
	// Replayed is set when an identical redemption (same card, service
	// type and service ref) had already been committed and was returned
	// instead of debiting again.
	Replayed bool `json:"replayed,omitempty"`
}

type LimitCheckResult struct {
	IsAdminAgent      bool  `json:"is_admin_agent"`
	WithinLimit       bool  `json:"within_limit"`
	CurrentMonthTotal Money `json:"current_month_total"`
	LimitAmount       Money `json:"limit_amount"`
	RemainingAmount   Money `json:"remaining_amount"`
}

type HistoryTotals struct {
	TotalPurchased Money `json:"total_purchased"`
	TotalReceived  Money `json:"total_received"`
	TotalRedeemed  Money `json:"total_redeemed"`
	TotalAwarded   Money `json:"total_awarded"`
	CurrentBalance Money `json:"current_balance"`
}

type CardHistory struct {
	Card    *GiftCard     `json:"card"`
	Entries []LedgerEntry `json:"entries"`
}

type HistoryReport struct {
	Cards  []CardHistory `json:"cards"`
	Totals HistoryTotals `json:"totals"`
}

type BalanceReport struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Balance    Money     `json:"balance"`
	CardCount  int       `json:"card_count"`
}

type AgentCardCounts struct {
	Active    int `json:"active"`
	Redeemed  int `json:"redeemed"`
	Suspended int `json:"suspended"`
	Cancelled int `json:"cancelled"`
	Expired   int `json:"expired"`
}

type AgentLedgerReport struct {
	AgentID     uuid.UUID       `json:"agent_id"`
	Cards       []CardHistory   `json:"cards"`
	Counts      AgentCardCounts `json:"counts"`
	TotalIssued Money           `json:"total_issued"`
}

type ReconcileResult struct {
	CardID         uuid.UUID `json:"card_id"`
	StoredBalance  Money     `json:"stored_balance"`
	DerivedBalance Money     `json:"derived_balance"`
	Consistent     bool      `json:"consistent"`
}
