package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

// Parameters and scans go through text casts so no driver-level uuid/numeric
// codecs need to be registered.
const orderColumns = `
	id::text, number, customer_id, restaurant_id, delivery_person_id,
	payment_method, coupon_code, notes, status, status_reason,
	subtotal::text, delivery_fee::text, service_fee::text, tax::text, discount::text, total::text,
	street, city, state, zip, lat, lon,
	rating_food, rating_delivery, rating_overall, rating_comment, rated_at,
	estimated_delivery_time, actual_delivery_time, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, number, customer_id, restaurant_id,
		                    payment_method, coupon_code, notes, status,
		                    subtotal, delivery_fee, service_fee, tax, discount, total,
		                    street, city, state, zip, lat, lon,
		                    estimated_delivery_time, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8,
		        $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13::numeric, $14::numeric,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err = tx.Exec(ctx, query,
		order.ID.String(), order.Number, order.CustomerID, order.RestaurantID,
		order.PaymentMethod, order.CouponCode, order.Notes, order.Status,
		order.Pricing.Subtotal.String(), order.Pricing.DeliveryFee.String(),
		order.Pricing.ServiceFee.String(), order.Pricing.Tax.String(),
		order.Pricing.Discount.String(), order.Pricing.Total.String(),
		order.DeliveryAddress.Street, order.DeliveryAddress.City,
		order.DeliveryAddress.State, order.DeliveryAddress.Zip,
		order.DeliveryAddress.Lat, order.DeliveryAddress.Lon,
		order.EstimatedDelivery, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		itemQuery := `
			INSERT INTO order_items (order_id, meal_id, name, quantity, unit_price, special_instructions)
			VALUES ($1::uuid, $2::uuid, $3, $4, $5::numeric, $6)
			RETURNING id
		`
		err = tx.QueryRow(ctx, itemQuery,
			order.ID.String(), order.Items[i].MealID.String(), order.Items[i].Name,
			order.Items[i].Quantity, order.Items[i].UnitPrice.String(),
			order.Items[i].SpecialInstructions,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		order.Items[i].OrderID = order.ID
	}

	for _, entry := range order.History {
		if err := insertStatusLog(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1::uuid`
	return r.findOne(ctx, query, id.String())
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`
	return r.findOne(ctx, query, number)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id::text, meal_id::text, name, quantity, unit_price::text, special_instructions
		FROM order_items
		WHERE order_id = $1::uuid
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, order.ID.String())
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	order.Items = nil
	for rows.Next() {
		var item domain.OrderItem
		var orderID, mealID, unitPrice string
		if err := rows.Scan(&item.ID, &orderID, &mealID, &item.Name, &item.Quantity, &unitPrice, &item.SpecialInstructions); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.OrderID, err = uuid.Parse(orderID); err != nil {
			return fmt.Errorf("failed to parse order id: %w", err)
		}
		if item.MealID, err = uuid.Parse(mealID); err != nil {
			return fmt.Errorf("failed to parse meal id: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return fmt.Errorf("failed to parse unit price: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return nil
}

func (r *orderRepository) UpdateStatusWithLog(ctx context.Context, order *domain.Order, expected domain.Status, changedBy string, note *string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = $1, status_reason = $2, actual_delivery_time = $3, updated_at = $4
		WHERE id = $5::uuid AND status = $6
	`
	tag, err := tx.Exec(ctx, query,
		order.Status, order.StatusReason, order.ActualDelivery, order.UpdatedAt,
		order.ID.String(), expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.casFailure(ctx, order.ID)
	}

	entry := domain.StatusLog{
		OrderID:   order.ID,
		Status:    order.Status,
		ChangedBy: changedBy,
		ChangedAt: order.UpdatedAt,
		Note:      note,
	}
	if err := insertStatusLog(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) AssignWithLog(ctx context.Context, order *domain.Order, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The claim races on (ready, unassigned); exactly one caller wins.
	query := `
		UPDATE orders
		SET status = $1, delivery_person_id = $2, updated_at = $3
		WHERE id = $4::uuid AND status = $5 AND delivery_person_id IS NULL
	`
	tag, err := tx.Exec(ctx, query,
		domain.StatusAssigned, order.DeliveryPersonID, order.UpdatedAt,
		order.ID.String(), domain.StatusReady,
	)
	if err != nil {
		return fmt.Errorf("failed to assign order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.casFailure(ctx, order.ID)
	}

	entry := domain.StatusLog{
		OrderID:   order.ID,
		Status:    domain.StatusAssigned,
		ChangedBy: changedBy,
		ChangedAt: order.UpdatedAt,
	}
	if err := insertStatusLog(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) SetRating(ctx context.Context, orderID uuid.UUID, rating domain.Rating) error {
	query := `
		UPDATE orders
		SET rating_food = $1, rating_delivery = $2, rating_overall = $3,
		    rating_comment = $4, rated_at = $5, updated_at = $5
		WHERE id = $6::uuid AND status = $7 AND rated_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query,
		rating.Food, rating.Delivery, rating.Overall, rating.Comment, rating.RatedAt,
		orderID.String(), domain.StatusDelivered,
	)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.ratingFailure(ctx, orderID)
	}
	return nil
}

func (r *orderRepository) Search(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
	where, args := buildOrderWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM orders` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	rows.Close()

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

func buildOrderWhere(filter domain.OrderFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CustomerID != nil {
		add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.RestaurantID != nil {
		add("restaurant_id = $%d", *filter.RestaurantID)
	}
	if filter.DeliveryPersonID != nil {
		add("delivery_person_id = $%d", *filter.DeliveryPersonID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Unassigned {
		conds = append(conds, "delivery_person_id IS NULL")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id::text, status, changed_by, changed_at, note
		FROM order_status_log
		WHERE order_id = $1::uuid
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		var rawID string
		if err := rows.Scan(&log.ID, &rawID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Note); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		if log.OrderID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("failed to parse order id: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, nil
}

func (r *orderRepository) Stats(ctx context.Context, scope domain.StatsScope) (*domain.OrderStats, error) {
	conds := []string{"created_at >= $1"}
	args := []any{scope.From}

	if scope.RestaurantID != nil {
		args = append(args, *scope.RestaurantID)
		conds = append(conds, fmt.Sprintf("restaurant_id = $%d", len(args)))
	}
	if scope.DeliveryPersonID != nil {
		args = append(args, *scope.DeliveryPersonID)
		conds = append(conds, fmt.Sprintf("delivery_person_id = $%d", len(args)))
	}

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(total), 0)::text,
		       COALESCE(AVG(total), 0)::text,
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM orders
		WHERE ` + strings.Join(conds, " AND ")

	var stats domain.OrderStats
	var revenue, average string
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.TotalOrders, &revenue, &average, &stats.Completed, &stats.Cancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	if stats.TotalRevenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, fmt.Errorf("failed to parse revenue: %w", err)
	}
	if stats.AverageOrderValue, err = decimal.NewFromString(average); err != nil {
		return nil, fmt.Errorf("failed to parse average: %w", err)
	}
	stats.TotalRevenue = stats.TotalRevenue.Round(2)
	stats.AverageOrderValue = stats.AverageOrderValue.Round(2)

	return &stats, nil
}

// casFailure distinguishes a missing order from a lost compare-and-swap.
func (r *orderRepository) casFailure(ctx context.Context, orderID uuid.UUID) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1::uuid)`, orderID.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check order existence: %w", err)
	}
	if !exists {
		return domain.ErrOrderNotFound
	}
	return domain.ErrConflict
}

func (r *orderRepository) ratingFailure(ctx context.Context, orderID uuid.UUID) error {
	var status domain.Status
	var ratedAt *time.Time
	err := r.db.QueryRow(ctx, `SELECT status, rated_at FROM orders WHERE id = $1::uuid`, orderID.String()).Scan(&status, &ratedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("failed to check order rating: %w", err)
	}
	if status != domain.StatusDelivered {
		return domain.ErrNotDelivered
	}
	return domain.ErrAlreadyRated
}

func insertStatusLog(ctx context.Context, tx Tx, entry domain.StatusLog) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, note)
		VALUES ($1::uuid, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query, entry.OrderID.String(), entry.Status, entry.ChangedBy, entry.ChangedAt, entry.Note)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order                                                   domain.Order
		rawID                                                   string
		subtotal, deliveryFee, serviceFee, tax, discount, total string
		ratingFood, ratingDelivery, ratingOverall               *int
		ratingComment                                           *string
		ratedAt                                                 *time.Time
	)

	err := row.Scan(
		&rawID, &order.Number, &order.CustomerID, &order.RestaurantID, &order.DeliveryPersonID,
		&order.PaymentMethod, &order.CouponCode, &order.Notes, &order.Status, &order.StatusReason,
		&subtotal, &deliveryFee, &serviceFee, &tax, &discount, &total,
		&order.DeliveryAddress.Street, &order.DeliveryAddress.City,
		&order.DeliveryAddress.State, &order.DeliveryAddress.Zip,
		&order.DeliveryAddress.Lat, &order.DeliveryAddress.Lon,
		&ratingFood, &ratingDelivery, &ratingOverall, &ratingComment, &ratedAt,
		&order.EstimatedDelivery, &order.ActualDelivery, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("failed to parse order id: %w", err)
	}

	for dst, src := range map[*decimal.Decimal]string{
		&order.Pricing.Subtotal:    subtotal,
		&order.Pricing.DeliveryFee: deliveryFee,
		&order.Pricing.ServiceFee:  serviceFee,
		&order.Pricing.Tax:         tax,
		&order.Pricing.Discount:    discount,
		&order.Pricing.Total:       total,
	} {
		if *dst, err = decimal.NewFromString(src); err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
	}

	if ratedAt != nil {
		order.Rating = &domain.Rating{
			Food:     *ratingFood,
			Delivery: *ratingDelivery,
			Overall:  *ratingOverall,
			Comment:  ratingComment,
			RatedAt:  *ratedAt,
		}
	}

	return &order, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
