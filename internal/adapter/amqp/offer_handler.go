package amqp

import (
	"context"
	"encoding/json"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type OfferHandler struct {
	service interfaces.DispatchService
	logger  logger.Logger
}

func NewOfferHandler(service interfaces.DispatchService, logger logger.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OfferHandler) HandleOffer(ctx context.Context, body []byte) error {
	var msg interfaces.DeliveryOfferMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse delivery offer", "", nil, err)
		return err
	}

	return h.service.HandleOffer(ctx, msg)
}
