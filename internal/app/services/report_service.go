package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/giftcard-core/internal/app/errors"
	"github.com/stagepass/giftcard-core/internal/app/models"
)

// ReportService is the read side: balances, histories and agent ledgers are
// derived straight from the cards and their ledger entries.
type ReportService struct {
	store *LedgerStore
}

func NewReportService(store *LedgerStore) *ReportService {
	return &ReportService{store: store}
}

// Balance sums the remaining balances of the Active cards awarded to the
// identity. Suspended, cancelled and expired cards do not count as
// spendable value.
func (s *ReportService) Balance(identityID uuid.UUID) (*models.BalanceReport, error) {
	var cards []models.GiftCard
	err := s.store.DB().
		Where("recipient_id = ? AND status = ?", identityID, models.GiftCardStatusActive).
		Find(&cards).Error
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to load gift cards")
	}

	total := decimal.Zero
	for _, card := range cards {
		total = total.Add(card.RemainingBalance.Decimal())
	}

	return &models.BalanceReport{
		IdentityID: identityID,
		Balance:    models.NewMoney(total),
		CardCount:  len(cards),
	}, nil
}

// History returns every card the identity issued or received, each with its
// full entry list, plus aggregate totals across all of them.
func (s *ReportService) History(identityID uuid.UUID) (*models.HistoryReport, error) {
	var cards []models.GiftCard
	err := s.store.DB().
		Where("issuer_id = ? OR recipient_id = ?", identityID, identityID).
		Order("created_at DESC").
		Find(&cards).Error
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to load gift cards")
	}

	report := &models.HistoryReport{Cards: make([]models.CardHistory, 0, len(cards))}
	purchased := decimal.Zero
	received := decimal.Zero
	redeemed := decimal.Zero
	awarded := decimal.Zero
	balance := decimal.Zero

	for i := range cards {
		card := cards[i]
		entries, err := s.store.EntriesForCard(card.ID)
		if err != nil {
			return nil, err
		}
		report.Cards = append(report.Cards, models.CardHistory{Card: &card, Entries: entries})

		if card.IssuerID == identityID {
			purchased = purchased.Add(card.FaceAmount.Decimal())
		}
		if card.RecipientID != nil && *card.RecipientID == identityID {
			received = received.Add(card.FaceAmount.Decimal())
			if card.Status == models.GiftCardStatusActive {
				balance = balance.Add(card.RemainingBalance.Decimal())
			}
		}
		for _, entry := range entries {
			switch entry.Type {
			case models.LedgerEntryTypeRedeem:
				if entry.ActorID == identityID {
					redeemed = redeemed.Add(entry.Amount.Decimal())
				}
			case models.LedgerEntryTypeAward:
				if card.IssuerID == identityID {
					awarded = awarded.Add(entry.Amount.Decimal())
				}
			}
		}
	}

	report.Totals = models.HistoryTotals{
		TotalPurchased: models.NewMoney(purchased),
		TotalReceived:  models.NewMoney(received),
		TotalRedeemed:  models.NewMoney(redeemed),
		TotalAwarded:   models.NewMoney(awarded),
		CurrentBalance: models.NewMoney(balance),
	}
	return report, nil
}

// AgentLedger returns every card the agent issued with its entries, status
// counts and the total face value issued.
func (s *ReportService) AgentLedger(agentID uuid.UUID) (*models.AgentLedgerReport, error) {
	var cards []models.GiftCard
	err := s.store.DB().
		Where("issuer_id = ?", agentID).
		Order("created_at DESC").
		Find(&cards).Error
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to load gift cards")
	}

	report := &models.AgentLedgerReport{
		AgentID: agentID,
		Cards:   make([]models.CardHistory, 0, len(cards)),
	}
	totalIssued := decimal.Zero

	for i := range cards {
		card := cards[i]
		entries, err := s.store.EntriesForCard(card.ID)
		if err != nil {
			return nil, err
		}
		report.Cards = append(report.Cards, models.CardHistory{Card: &card, Entries: entries})
		totalIssued = totalIssued.Add(card.FaceAmount.Decimal())

		switch card.Status {
		case models.GiftCardStatusActive:
			report.Counts.Active++
		case models.GiftCardStatusRedeemed:
			report.Counts.Redeemed++
		case models.GiftCardStatusSuspended:
			report.Counts.Suspended++
		case models.GiftCardStatusCancelled:
			report.Counts.Cancelled++
		case models.GiftCardStatusExpired:
			report.Counts.Expired++
		}
	}

	report.TotalIssued = models.NewMoney(totalIssued)
	return report, nil
}

// Reconcile recomputes a card's balance from its ledger entries and compares
// it with the stored balance.
func (s *ReportService) Reconcile(cardID string) (*models.ReconcileResult, error) {
	id, err := parseUUID(cardID, "card ID")
	if err != nil {
		return nil, err
	}
	return s.store.Reconcile(id)
}
