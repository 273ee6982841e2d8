package browse

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

// Courier heartbeats are expected every 30s; twice that without one means offline.
const courierOfflineTimeout = 60 * time.Second

type Service struct {
	orderRepo   interfaces.OrderRepository
	courierRepo interfaces.CourierRepository
	logger      logger.Logger
}

func NewService(orderRepo interfaces.OrderRepository, courierRepo interfaces.CourierRepository, logger logger.Logger) *Service {
	return &Service{
		orderRepo:   orderRepo,
		courierRepo: courierRepo,
		logger:      logger,
	}
}

// ListOrders routes the listing to the caller's scope: customers see their
// orders, owners their restaurant's, couriers their assignments.
func (s *Service) ListOrders(ctx context.Context, p domain.Principal, status *domain.Status, page, limit int) (*interfaces.OrderPage, error) {
	filter := domain.OrderFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	}

	id := p.ID
	switch p.Role {
	case domain.RoleCustomer:
		filter.CustomerID = &id
	case domain.RoleRestaurantOwner:
		filter.RestaurantID = &id
	case domain.RoleDelivery:
		filter.DeliveryPersonID = &id
	case domain.RoleAdmin:
		// unscoped
	default:
		return nil, domain.ErrForbidden
	}

	return s.search(ctx, filter)
}

// AvailableOrders lists ready, unassigned orders offered for pickup.
func (s *Service) AvailableOrders(ctx context.Context, p domain.Principal, page, limit int) (*interfaces.OrderPage, error) {
	if p.Role != domain.RoleDelivery && p.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	ready := domain.StatusReady
	filter := domain.OrderFilter{
		Status:     &ready,
		Unassigned: true,
		Page:       page,
		Limit:      limit,
	}

	return s.search(ctx, filter)
}

func (s *Service) search(ctx context.Context, filter domain.OrderFilter) (*interfaces.OrderPage, error) {
	filter.Normalize()

	orders, total, err := s.orderRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := total / filter.Limit
	if total%filter.Limit > 0 {
		totalPages++
	}

	return &interfaces.OrderPage{
		Orders:      orders,
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: filter.Page,
	}, nil
}

// TrackOrder returns the reduced read-only projection; only the order's
// customer or an admin may see it.
func (s *Service) TrackOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (*interfaces.TrackingResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if p.Role != domain.RoleAdmin && (p.Role != domain.RoleCustomer || order.CustomerID != p.ID) {
		return nil, domain.ErrForbidden
	}

	return &interfaces.TrackingResponse{
		OrderID:           order.ID,
		OrderNumber:       order.Number,
		Status:            order.Status,
		RestaurantID:      order.RestaurantID,
		DeliveryPersonID:  order.DeliveryPersonID,
		EstimatedDelivery: order.EstimatedDelivery,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}, nil
}

func (s *Service) OrderHistory(ctx context.Context, p domain.Principal, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.VisibleTo(p) {
		return nil, domain.ErrForbidden
	}
	return s.orderRepo.GetStatusHistory(ctx, orderID)
}

// Stats aggregates over the caller's scope: owners over their restaurant,
// couriers over their deliveries, admins over everything.
func (s *Service) Stats(ctx context.Context, p domain.Principal, period domain.Period) (*domain.OrderStats, error) {
	scope := domain.StatsScope{From: period.Start(time.Now().UTC())}

	id := p.ID
	switch p.Role {
	case domain.RoleRestaurantOwner:
		scope.RestaurantID = &id
	case domain.RoleDelivery:
		scope.DeliveryPersonID = &id
	case domain.RoleAdmin:
		// unscoped
	default:
		return nil, domain.ErrForbidden
	}

	return s.orderRepo.Stats(ctx, scope)
}

func (s *Service) CouriersStatus(ctx context.Context, p domain.Principal) ([]*interfaces.CourierStatusResponse, error) {
	if p.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	couriers, err := s.courierRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var resp []*interfaces.CourierStatusResponse
	for _, c := range couriers {
		status := c.Status
		if status == domain.CourierStatusOnline && time.Since(c.LastSeen) > courierOfflineTimeout {
			status = domain.CourierStatusOffline
		}

		resp = append(resp, &interfaces.CourierStatusResponse{
			CourierName:     c.Name,
			Status:          status,
			OrdersDelivered: c.OrdersDelivered,
			LastSeen:        c.LastSeen,
		})
	}

	return resp, nil
}
