package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/mealdash/internal/domain"
)

// Сообщения RabbitMQ
type DeliveryOfferMessage struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	RestaurantID string    `json:"restaurant_id"`
	City         string    `json:"city"`
	Street       string    `json:"street"`
	Total        string    `json:"total"`
	ReadyAt      time.Time `json:"ready_at"`
}

type StatusUpdateMessage struct {
	OrderID     uuid.UUID     `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	ChangedBy   string        `json:"changed_by"`
	Reason      *string       `json:"reason,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishDeliveryOffer(ctx context.Context, msg DeliveryOfferMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeDeliveryOffers(ctx context.Context, handler OfferMessageHandler) error
	ConsumeStatusUpdates(ctx context.Context, handler NotificationHandler) error
}

type (
	OfferMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
