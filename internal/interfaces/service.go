package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/mealdash/internal/domain"
)

// Интерфейсы Сервисов (Business Logic)
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, p domain.Principal, orderID uuid.UUID, newStatus domain.Status, note *string) (*domain.Order, error)
	CancelOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID, reason string) (*domain.Order, error)
	AssignDelivery(ctx context.Context, p domain.Principal, orderID uuid.UUID, courierID string) (*domain.Order, error)
	RateOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID, cmd RateOrderCommand) (*domain.Order, error)
}

type BrowseService interface {
	ListOrders(ctx context.Context, p domain.Principal, status *domain.Status, page, limit int) (*OrderPage, error)
	AvailableOrders(ctx context.Context, p domain.Principal, page, limit int) (*OrderPage, error)
	TrackOrder(ctx context.Context, p domain.Principal, orderID uuid.UUID) (*TrackingResponse, error)
	OrderHistory(ctx context.Context, p domain.Principal, orderID uuid.UUID) ([]*domain.StatusLog, error)
	Stats(ctx context.Context, p domain.Principal, period domain.Period) (*domain.OrderStats, error)
	CouriersStatus(ctx context.Context, p domain.Principal) ([]*CourierStatusResponse, error)
}

type DispatchService interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HandleOffer(ctx context.Context, msg DeliveryOfferMessage) error
}

// Команды для сервисов
type CreateOrderCommand struct {
	CustomerID      string
	RestaurantID    string
	Items           []CreateOrderItemCommand
	DeliveryAddress domain.Address
	PaymentMethod   string
	CouponCode      *string
	Notes           *string
}

type CreateOrderItemCommand struct {
	MealID              uuid.UUID
	Quantity            int
	SpecialInstructions *string
}

type RateOrderCommand struct {
	Food     int
	Delivery int
	Overall  int
	Comment  *string
}

// Ответы сервисов
type OrderPage struct {
	Orders      []*domain.Order
	TotalCount  int
	TotalPages  int
	CurrentPage int
}

type TrackingResponse struct {
	OrderID           uuid.UUID
	OrderNumber       string
	Status            domain.Status
	RestaurantID      string
	DeliveryPersonID  *string
	EstimatedDelivery *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CourierStatusResponse struct {
	CourierName     string
	Status          domain.CourierStatus
	OrdersDelivered int
	LastSeen        time.Time
}
