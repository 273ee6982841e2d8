package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

// Service is a courier-side worker: it registers the courier, keeps a
// heartbeat, and claims delivery offers from the dispatch queue.
type Service struct {
	courierRepo       interfaces.CourierRepository
	orders            interfaces.OrderService
	logger            logger.Logger
	courierName       string
	zones             []string
	heartbeatInterval time.Duration
}

func NewService(
	courierRepo interfaces.CourierRepository,
	orders interfaces.OrderService,
	logger logger.Logger,
	courierName string,
	zones string,
	heartbeatInterval int,
) *Service {
	var zoneList []string
	if zones != "" {
		zoneList = strings.Split(zones, ",")
	}

	return &Service{
		courierRepo:       courierRepo,
		orders:            orders,
		logger:            logger,
		courierName:       courierName,
		zones:             zoneList,
		heartbeatInterval: time.Duration(heartbeatInterval) * time.Second,
	}
}

func (s *Service) Start(ctx context.Context) error {
	courier, err := s.courierRepo.FindByName(ctx, s.courierName)
	if err == nil {
		if courier.Status == domain.CourierStatusOnline {
			return fmt.Errorf("courier with name %s is already online", s.courierName)
		}
		courier.Zones = s.zones
		courier.UpdateHeartbeat()
		if err := s.courierRepo.Update(ctx, courier); err != nil {
			return err
		}
	} else if errors.Is(err, domain.ErrCourierNotFound) {
		courier, err = domain.NewCourier(s.courierName, s.zones)
		if err != nil {
			return err
		}
		if err := s.courierRepo.Create(ctx, courier); err != nil {
			return err
		}
	} else {
		return err
	}

	s.logger.Info("courier_registered", fmt.Sprintf("Courier %s registered", s.courierName), "", nil)

	go s.heartbeatLoop(ctx)

	return nil
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.courierRepo.UpdateHeartbeat(ctx, s.courierName); err != nil {
				s.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
			} else {
				s.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	courier, err := s.courierRepo.FindByName(ctx, s.courierName)
	if err != nil {
		return err
	}
	courier.SetOffline()
	return s.courierRepo.Update(ctx, courier)
}

// HandleOffer attempts to claim a ready order. The claim is a compare-and-swap
// on the order row, so concurrent couriers race safely: exactly one wins and
// the rest see the offer as already taken.
func (s *Service) HandleOffer(ctx context.Context, msg interfaces.DeliveryOfferMessage) error {
	courier := domain.Courier{Name: s.courierName, Zones: s.zones}
	if !courier.Serves(msg.City) {
		// Ошибка начинается с "courier", чтобы consumer сделал Nack с requeue
		return fmt.Errorf("courier %s cannot deliver to zone %s", s.courierName, msg.City)
	}

	s.logger.Debug("offer_received", fmt.Sprintf("Claiming order %s", msg.OrderNumber), "", map[string]interface{}{
		"order_number": msg.OrderNumber,
		"city":         msg.City,
	})

	p := domain.Principal{ID: s.courierName, Role: domain.RoleDelivery}
	_, err := s.orders.AssignDelivery(ctx, p, msg.OrderID, s.courierName)
	switch {
	case err == nil:
		s.logger.Info("order_claimed", fmt.Sprintf("Order %s assigned to %s", msg.OrderNumber, s.courierName), "", nil)
		return nil

	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		// Заказ уже забрал другой курьер или отменен
		s.logger.Debug("offer_taken", fmt.Sprintf("Order %s no longer available", msg.OrderNumber), "", nil)
		return nil

	case errors.Is(err, domain.ErrOrderNotFound):
		s.logger.Debug("offer_stale", fmt.Sprintf("Order %s not found", msg.OrderNumber), "", nil)
		return nil

	default:
		return fmt.Errorf("failed to claim order %s: %w", msg.OrderNumber, err)
	}
}
