package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/models"
)

// Lifecycle event types.
const (
	EventOrderCancelled     = "ORDER_CANCELLED"
	EventOrderStatusUpdated = "ORDER_STATUS_UPDATED"
)

// Event is a lifecycle notification payload.
type Event struct {
	Type string
	Data map[string]any
}

// Publisher delivers lifecycle events. Fire-and-forget: implementations log
// failures and never propagate them into the calling operation.
type Publisher interface {
	PublishToAdmin(event Event)
	PublishToUser(userID uuid.UUID, event Event)
}

// NotificationService is the Publisher wired in production: admin events go
// to the Telegram admin chat, user events become persisted in-app rows.
type NotificationService struct {
	db       *gorm.DB
	telegram *TelegramService
	log      *logrus.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(db *gorm.DB, telegram *TelegramService, log *logrus.Logger) *NotificationService {
	return &NotificationService{db: db, telegram: telegram, log: log}
}

// PublishToAdmin formats the event and sends it to the admin chat.
func (s *NotificationService) PublishToAdmin(event Event) {
	var text string
	switch event.Type {
	case EventOrderCancelled:
		text = fmt.Sprintf(
			"<b>Order cancelled</b>\nOrder: <code>%v</code>\nCustomer: <code>%v</code>\nReason: %v",
			event.Data["order_id"], event.Data["user_id"], event.Data["reason"])
	default:
		text = fmt.Sprintf("<b>%s</b>\n%v", event.Type, event.Data)
	}

	if err := s.telegram.SendToAdmin(text); err != nil {
		s.log.WithError(err).WithField("event", event.Type).
			Warn("notify: admin delivery failed")
	}
}

// PublishToUser persists the event as an in-app notification for the user.
func (s *NotificationService) PublishToUser(userID uuid.UUID, event Event) {
	message, _ := event.Data["message"].(string)
	if message == "" {
		message = event.Type
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    event.Type,
		Message: message,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		s.log.WithError(err).WithField("user_id", userID).
			Warn("notify: user delivery failed")
	}
}
