package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GiftCardStatus string

const (
	GiftCardStatusActive    GiftCardStatus = "ACTIVE"
	GiftCardStatusRedeemed  GiftCardStatus = "REDEEMED"
	GiftCardStatusSuspended GiftCardStatus = "SUSPENDED"
	GiftCardStatusCancelled GiftCardStatus = "CANCELLED"
	GiftCardStatusExpired   GiftCardStatus = "EXPIRED"
)

type RecipientType string

const (
	RecipientTypeUser   RecipientType = "user"
	RecipientTypeVenue  RecipientType = "venue"
	RecipientTypeStudio RecipientType = "studio"
	RecipientTypeBand   RecipientType = "band"
)

// MaxExpiryDays caps card lifetime; operators may shorten it, never extend
// past this.
const MaxExpiryDays = 365

// GiftCard is a stored-value card. RemainingBalance is a cache of
// FaceAmount minus the sum of REDEEM ledger entries and is only ever written
// in the same atomic unit that appends the corresponding entry. Cards are
// never physically deleted; cancellation is a status transition.
type GiftCard struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code             string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	FaceAmount       Money          `gorm:"type:decimal(18,2);not null" json:"face_amount"`
	RemainingBalance Money          `gorm:"type:decimal(18,2);not null" json:"remaining_balance"`
	Currency         string         `gorm:"type:varchar(3);not null" json:"currency"`
	Status           GiftCardStatus `gorm:"type:varchar(20);index;not null;default:'ACTIVE'" json:"status"`
	IssuerID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"issuer_id"`
	RecipientID      *uuid.UUID     `gorm:"type:uuid;index" json:"recipient_id,omitempty"`
	RecipientType    *RecipientType `gorm:"type:varchar(20)" json:"recipient_type,omitempty"`
	RecipientEmail   *string        `gorm:"type:varchar(255)" json:"recipient_email,omitempty"`
	Message          *string        `gorm:"type:text" json:"message,omitempty"`
	AdminNotes       *string        `gorm:"type:text" json:"admin_notes,omitempty"`
	IssuedAt         time.Time      `gorm:"not null" json:"issued_at"`
	AwardedAt        *time.Time     `json:"awarded_at,omitempty"`
	ExpiresAt        time.Time      `gorm:"index;not null" json:"expires_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *GiftCard) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Awarded reports whether spending rights have been assigned to a recipient.
func (c *GiftCard) Awarded() bool {
	return c.RecipientID != nil
}

func (c *GiftCard) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type GiftCardIssueRequest struct {
	FaceAmount     Money          `json:"face_amount" validate:"required"`
	Currency       string         `json:"currency" validate:"required,len=3"`
	ExpiryDays     int            `json:"expiry_days" validate:"omitempty,min=1,max=365"`
	RecipientEmail *string        `json:"recipient_email,omitempty" validate:"omitempty,email"`
	RecipientType  *RecipientType `json:"recipient_type,omitempty" validate:"omitempty,oneof=user venue studio band"`
	Message        *string        `json:"message,omitempty" validate:"omitempty,max=1000"`
	// PaymentRef is the confirmed payment reference reported by the
	// payment provider for purchased cards. Recorded on the PURCHASE
	// ledger entry; verifying it is the provider integration's concern.
	PaymentRef *string `json:"payment_ref,omitempty" validate:"omitempty,max=100"`
}

type GiftCardAwardRequest struct {
	RecipientID   string        `json:"recipient_id" validate:"required,uuid"`
	RecipientType RecipientType `json:"recipient_type" validate:"required,oneof=user venue studio band"`
}

type GiftCardEditRequest struct {
	NewFaceAmount    *Money         `json:"new_face_amount,omitempty"`
	NewRecipientID   *string        `json:"new_recipient_id,omitempty" validate:"omitempty,uuid"`
	NewRecipientType *RecipientType `json:"new_recipient_type,omitempty" validate:"omitempty,oneof=user venue studio band"`
	Note             *string        `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type GiftCardStatusRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// GiftCardSummary is the card shape returned to issuance callers.
type GiftCardSummary struct {
	ID        uuid.UUID      `json:"id"`
	Code      string         `json:"code"`
	Amount    Money          `json:"amount"`
	Currency  string         `json:"currency"`
	ExpiresAt time.Time      `json:"expires_at"`
	Message   *string        `json:"message,omitempty"`
	Status    GiftCardStatus `json:"status"`
}

func (c *GiftCard) Summary() *GiftCardSummary {
	return &GiftCardSummary{
		ID:        c.ID,
		Code:      c.Code,
		Amount:    c.FaceAmount,
		Currency:  c.Currency,
		ExpiresAt: c.ExpiresAt,
		Message:   c.Message,
		Status:    c.Status,
	}
}
