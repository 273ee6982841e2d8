package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/mealdash/internal/domain"
)

// Интерфейсы Репозиториев (Adapter/Postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)

	// UpdateStatusWithLog persists the order's current status fields and
	// appends a status log row in one transaction. The write is a
	// compare-and-swap against expected; domain.ErrConflict is returned
	// when the stored status no longer matches.
	UpdateStatusWithLog(ctx context.Context, order *domain.Order, expected domain.Status, changedBy string, note *string) error

	// AssignWithLog claims a ready, unassigned order for a courier.
	// The claim races on (status='ready', delivery_person_id IS NULL);
	// losers observe domain.ErrConflict.
	AssignWithLog(ctx context.Context, order *domain.Order, changedBy string) error

	// SetRating records the rating on a delivered, not-yet-rated order.
	SetRating(ctx context.Context, orderID uuid.UUID, rating domain.Rating) error

	Search(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error)
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)
	Stats(ctx context.Context, scope domain.StatsScope) (*domain.OrderStats, error)
}

type CourierRepository interface {
	Create(ctx context.Context, courier *domain.Courier) error
	FindByName(ctx context.Context, name string) (*domain.Courier, error)
	Update(ctx context.Context, courier *domain.Courier) error
	UpdateHeartbeat(ctx context.Context, name string) error
	ListAll(ctx context.Context) ([]*domain.Courier, error)
	IncrementOrdersDelivered(ctx context.Context, name string) error
}

type MealRepository interface {
	// FindByIDs returns the catalog records for the given meals of one
	// restaurant; missing ids are simply absent from the result.
	FindByIDs(ctx context.Context, restaurantID string, ids []uuid.UUID) ([]*domain.Meal, error)
}
