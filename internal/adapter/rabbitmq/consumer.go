package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

const (
	dispatchQueue    = "dispatch_queue"
	dispatchDLQ      = "dispatch_queue_dlq"
	dispatchExchange = "order_events_dlq"
)

type consumer struct {
	conn     Connection
	prefetch int
}

func NewConsumer(conn Connection, prefetch int) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch}
}

func (c *consumer) ConsumeDeliveryOffers(ctx context.Context, handler interfaces.OfferMessageHandler) error {
	for {
		err := c.consumeOffersWithReconnect(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		log.Printf("Offers consumer disconnected: %v. Reconnecting in 5 seconds...", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) ConsumeStatusUpdates(ctx context.Context, handler interfaces.NotificationHandler) error {
	for {
		err := c.consumeStatusUpdatesWithReconnect(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		log.Printf("Status updates consumer disconnected: %v. Reconnecting in 5 seconds...", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) consumeOffersWithReconnect(ctx context.Context, handler interfaces.OfferMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := c.setupOffersInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(dispatchQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// Зональная специализация: отдаем заказ другим курьерам
				if strings.Contains(err.Error(), "cannot deliver to zone") {
					msg.Nack(false, true)
				} else {
					// Отправляем в DLQ (requeue=false)
					msg.Nack(false, false)
				}
			} else {
				msg.Ack(false)
			}
		}
	}
}

func (c *consumer) consumeStatusUpdatesWithReconnect(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(notificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", notificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// Игнорируем ошибки обработки уведомлений
			_ = handler(ctx, msg.Body)
		}
	}
}

func (c *consumer) setupOffersInfrastructure(ch Channel) error {
	if err := ch.ExchangeDeclare(offersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare offers exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(dispatchExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(dispatchDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(dispatchDLQ, "#", dispatchExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": dispatchExchange,
	}

	q, err := ch.QueueDeclare(dispatchQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare dispatch queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "delivery.#", offersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dispatch queue: %w", err)
	}

	return nil
}
