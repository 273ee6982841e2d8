package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type courierRepository struct {
	db DB
}

func NewCourierRepository(db DB) interfaces.CourierRepository {
	return &courierRepository{db: db}
}

func (r *courierRepository) Create(ctx context.Context, courier *domain.Courier) error {
	query := `
		INSERT INTO couriers (name, zones, status, last_seen, orders_delivered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		courier.Name, strings.Join(courier.Zones, ","), courier.Status,
		courier.LastSeen, courier.OrdersDelivered, courier.CreatedAt,
	).Scan(&courier.ID)
	if err != nil {
		return fmt.Errorf("failed to create courier: %w", err)
	}
	return nil
}

func (r *courierRepository) FindByName(ctx context.Context, name string) (*domain.Courier, error) {
	query := `
		SELECT id, name, zones, status, last_seen, orders_delivered, created_at
		FROM couriers
		WHERE name = $1
	`

	courier, err := scanCourier(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCourierNotFound
		}
		return nil, fmt.Errorf("failed to load courier: %w", err)
	}

	return courier, nil
}

func (r *courierRepository) Update(ctx context.Context, courier *domain.Courier) error {
	query := `
		UPDATE couriers
		SET zones = $1, status = $2, last_seen = $3, orders_delivered = $4
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query,
		strings.Join(courier.Zones, ","), courier.Status, courier.LastSeen,
		courier.OrdersDelivered, courier.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update courier: %w", err)
	}
	return nil
}

func (r *courierRepository) UpdateHeartbeat(ctx context.Context, name string) error {
	query := `
		UPDATE couriers
		SET last_seen = $1, status = $2
		WHERE name = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now(), domain.CourierStatusOnline, name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *courierRepository) ListAll(ctx context.Context) ([]*domain.Courier, error) {
	query := `
		SELECT id, name, zones, status, last_seen, orders_delivered, created_at
		FROM couriers
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list couriers: %w", err)
	}
	defer rows.Close()

	var couriers []*domain.Courier
	for rows.Next() {
		courier, err := scanCourier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan courier: %w", err)
		}
		couriers = append(couriers, courier)
	}

	return couriers, nil
}

func (r *courierRepository) IncrementOrdersDelivered(ctx context.Context, name string) error {
	query := `
		UPDATE couriers
		SET orders_delivered = orders_delivered + 1
		WHERE name = $1
	`
	_, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to increment orders delivered: %w", err)
	}
	return nil
}

func scanCourier(row Row) (*domain.Courier, error) {
	var courier domain.Courier
	var zones string
	err := row.Scan(
		&courier.ID, &courier.Name, &zones, &courier.Status,
		&courier.LastSeen, &courier.OrdersDelivered, &courier.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if zones != "" {
		courier.Zones = strings.Split(zones, ",")
	}
	return &courier, nil
}
