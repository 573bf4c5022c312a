package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stagepass/giftcard-core/internal/app/models"
	"github.com/stagepass/giftcard-core/internal/infrastructures"
)

const defaultNotificationChannel = "giftcard-events"

// NotificationService publishes committed gift card events for downstream
// consumers (email dispatch, analytics). It runs strictly after commit and
// is fire-and-forget: a failed publish is logged and never causes the
// mutation to be retried or reversed.
type NotificationService struct {
	redis   *redis.Client
	channel string
}

func NewNotificationService(redisClient *redis.Client) *NotificationService {
	channel := defaultNotificationChannel
	if infrastructures.Config != nil && infrastructures.Config.NOTIFICATION_CHANNEL != "" {
		channel = infrastructures.Config.NOTIFICATION_CHANNEL
	}
	return &NotificationService{
		redis:   redisClient,
		channel: channel,
	}
}

type cardEvent struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func (s *NotificationService) CardIssued(card *models.GiftCard) {
	s.publish("gift_card.issued", card.Summary())
}

func (s *NotificationService) CardAwarded(card *models.GiftCard) {
	s.publish("gift_card.awarded", card)
}

func (s *NotificationService) CardRedeemed(result *models.RedeemResult) {
	s.publish("gift_card.redeemed", result)
}

func (s *NotificationService) publish(event string, payload any) {
	if s.redis == nil {
		return
	}

	body, err := json.Marshal(cardEvent{
		Event:      event,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		logrus.Warnf("notification marshal failed for %s: %v", event, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.redis.Publish(ctx, s.channel, body).Err(); err != nil {
		logrus.Warnf("notification publish failed for %s: %v", event, err)
	}
}
