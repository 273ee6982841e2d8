package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

// deliveryEstimate is advisory only; no transition is gated on it.
const deliveryEstimate = 45 * time.Minute

type Service struct {
	repo      interfaces.OrderRepository
	meals     interfaces.MealRepository
	couriers  interfaces.CourierRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	fees      domain.FeeSchedule
}

func NewService(
	repo interfaces.OrderRepository,
	meals interfaces.MealRepository,
	couriers interfaces.CourierRepository,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	fees domain.FeeSchedule,
) *Service {
	return &Service{
		repo:      repo,
		meals:     meals,
		couriers:  couriers,
		publisher: publisher,
		logger:    logger,
		fees:      fees,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	mealIDs := lo.Map(cmd.Items, func(item interfaces.CreateOrderItemCommand, _ int) uuid.UUID {
		return item.MealID
	})

	catalog, err := s.meals.FindByIDs(ctx, cmd.RestaurantID, mealIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}
	byID := lo.KeyBy(catalog, func(m *domain.Meal) uuid.UUID { return m.ID })

	var errs domain.ValidationErrors
	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for i, item := range cmd.Items {
		meal, ok := byID[item.MealID]
		if !ok {
			errs = append(errs, domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].meal_id", i),
				Message: "meal does not exist for this restaurant",
			})
			continue
		}
		if !meal.Available {
			errs = append(errs, domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].meal_id", i),
				Message: "meal is currently unavailable",
			})
			continue
		}
		items = append(items, domain.OrderItem{
			MealID:              meal.ID,
			Name:                meal.Name,
			Quantity:            item.Quantity,
			UnitPrice:           meal.Price,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	order, err := domain.NewOrder(cmd.CustomerID, cmd.RestaurantID, items, cmd.DeliveryAddress, cmd.PaymentMethod, s.fees)
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, err
	}
	order.CouponCode = cmd.CouponCode
	order.Notes = cmd.Notes

	estimate := order.CreatedAt.Add(deliveryEstimate)
	order.EstimatedDelivery = &estimate

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}
	s.logger.Debug("order_created", "Order created in DB", "", map[string]interface{}{"order_number": order.Number})

	s.notifyStatusChange(ctx, order, "", cmd.CustomerID)

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.VisibleTo(p) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, orderID uuid.UUID, newStatus domain.Status, note *string) (*domain.Order, error) {
	if newStatus == domain.StatusAssigned {
		// assignment must record the courier; see AssignDelivery
		return nil, domain.ErrInvalidTransition
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !p.Role.MaySetStatus(newStatus) || !mayMutate(p, order, newStatus) {
		return nil, domain.ErrForbidden
	}

	oldStatus := order.Status

	if newStatus == domain.StatusCancelled {
		var reason string
		if note != nil {
			reason = *note
		}
		err = order.Cancel(p.ID, reason)
	} else {
		err = order.TransitionTo(newStatus, p.ID, note)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatusWithLog(ctx, order, oldStatus, p.ID, note); err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, order, oldStatus, p.ID)

	if newStatus == domain.StatusReady {
		s.offerDelivery(ctx, order)
	}

	if newStatus == domain.StatusDelivered && p.Role == domain.RoleDelivery {
		if err := s.couriers.IncrementOrdersDelivered(ctx, p.ID); err != nil {
			s.logger.Error("db_error", "Failed to increment courier stats", "", nil, err)
		}
	}

	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID, reason string) (*domain.Order, error) {
	note := reason
	return s.UpdateStatus(ctx, p, orderID, domain.StatusCancelled, &note)
}

func (s *Service) AssignDelivery(ctx context.Context, p domain.Principal, orderID uuid.UUID, courierID string) (*domain.Order, error) {
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleDelivery:
		// couriers may only claim for themselves
		if courierID != p.ID {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if err := order.Assign(courierID, p.ID); err != nil {
		return nil, err
	}

	if err := s.repo.AssignWithLog(ctx, order, p.ID); err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, order, oldStatus, p.ID)

	return order, nil
}

func (s *Service) RateOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID, cmd interfaces.RateOrderCommand) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if p.Role != domain.RoleCustomer || order.CustomerID != p.ID {
		return nil, domain.ErrForbidden
	}

	rating := domain.Rating{
		Food:     cmd.Food,
		Delivery: cmd.Delivery,
		Overall:  cmd.Overall,
		Comment:  cmd.Comment,
	}
	if err := order.Rate(rating); err != nil {
		return nil, err
	}

	if err := s.repo.SetRating(ctx, orderID, *order.Rating); err != nil {
		return nil, err
	}

	return order, nil
}

// mayMutate applies ownership on top of the role gate: owners act on their
// restaurant's orders, couriers on their assignment, customers may only
// cancel their own order.
func mayMutate(p domain.Principal, order *domain.Order, newStatus domain.Status) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleRestaurantOwner:
		return order.RestaurantID == p.ID
	case domain.RoleDelivery:
		return order.DeliveryPersonID != nil && *order.DeliveryPersonID == p.ID
	case domain.RoleCustomer:
		return newStatus == domain.StatusCancelled && order.CustomerID == p.ID
	default:
		return false
	}
}

func (s *Service) notifyStatusChange(ctx context.Context, order *domain.Order, oldStatus domain.Status, changedBy string) {
	msg := interfaces.StatusUpdateMessage{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
		ChangedBy:   changedBy,
		Reason:      order.StatusReason,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		// Не блокируем процесс из-за ошибки уведомления
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", nil, err)
	}
}

func (s *Service) offerDelivery(ctx context.Context, order *domain.Order) {
	msg := interfaces.DeliveryOfferMessage{
		OrderID:      order.ID,
		OrderNumber:  order.Number,
		RestaurantID: order.RestaurantID,
		City:         order.DeliveryAddress.City,
		Street:       order.DeliveryAddress.Street,
		Total:        order.Pricing.Total.String(),
		ReadyAt:      time.Now().UTC(),
	}

	if err := s.publisher.PublishDeliveryOffer(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish delivery offer", "", nil, err)
	}
}
