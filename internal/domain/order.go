package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a marketplace order entity
type Order struct {
	ID                uuid.UUID
	Number            string
	CustomerID        string
	RestaurantID      string
	DeliveryPersonID  *string
	Items             []OrderItem
	Pricing           Pricing
	DeliveryAddress   Address
	PaymentMethod     string
	CouponCode        *string
	Notes             *string
	Status            Status
	StatusReason      *string
	History           []StatusLog
	Rating            *Rating
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem represents a line in an order. UnitPrice is snapshotted from the
// meal catalog at creation time and never recomputed.
type OrderItem struct {
	ID                  int64
	OrderID             uuid.UUID
	MealID              uuid.UUID
	Name                string
	Quantity            int
	UnitPrice           decimal.Decimal
	SpecialInstructions *string
}

// Pricing is the cost snapshot computed once at creation.
type Pricing struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	ServiceFee  decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// FeeSchedule carries the configured rates used to build a Pricing snapshot.
type FeeSchedule struct {
	DeliveryFee    decimal.Decimal
	ServiceFeeRate decimal.Decimal
	TaxRate        decimal.Decimal
}

type Address struct {
	Street string
	City   string
	State  string
	Zip    string
	Lat    float64
	Lon    float64
}

// Rating is settable exactly once, only on a delivered order.
type Rating struct {
	Food     int
	Delivery int
	Overall  int
	Comment  *string
	RatedAt  time.Time
}

// Meal is the catalog record consulted when validating order items.
type Meal struct {
	ID           uuid.UUID
	RestaurantID string
	Name         string
	Price        decimal.Decimal
	Available    bool
}

// NewOrder creates a pending order with business rules applied. The items
// must already carry catalog-verified names and unit prices.
func NewOrder(customerID, restaurantID string, items []OrderItem, addr Address, paymentMethod string, fees FeeSchedule) (*Order, error) {
	id := uuid.New()
	now := time.Now().UTC()

	order := &Order{
		ID:              id,
		Number:          NewOrderNumber(id),
		CustomerID:      customerID,
		RestaurantID:    restaurantID,
		Items:           items,
		DeliveryAddress: addr,
		PaymentMethod:   paymentMethod,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.Pricing = ComputePricing(items, fees, decimal.Zero)
	order.History = []StatusLog{{
		OrderID:   id,
		Status:    StatusPending,
		ChangedBy: customerID,
		ChangedAt: now,
	}}

	return order, nil
}

// NewOrderNumber derives a human-readable, collision-resistant order number
// from the order's UUID. The orders table additionally carries a UNIQUE
// constraint on the column.
func NewOrderNumber(id uuid.UUID) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", hex[:8], hex[8:12])
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	var errs ValidationErrors

	if o.CustomerID == "" {
		errs = append(errs, ValidationError{Field: "customer_id", Message: "customer id is required"})
	}
	if o.RestaurantID == "" {
		errs = append(errs, ValidationError{Field: "restaurant_id", Message: "restaurant id is required"})
	}
	if o.PaymentMethod == "" {
		errs = append(errs, ValidationError{Field: "payment_method", Message: "payment method is required"})
	}

	if len(o.Items) < 1 || len(o.Items) > 50 {
		errs = append(errs, ValidationError{Field: "items", Message: "order must have 1-50 items"})
	}
	for i, item := range o.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if item.MealID == uuid.Nil {
			errs = append(errs, ValidationError{Field: prefix + ".meal_id", Message: "meal id is required"})
		}
		if item.Quantity < 1 || item.Quantity > 20 {
			errs = append(errs, ValidationError{Field: prefix + ".quantity", Message: "item quantity must be 1-20"})
		}
		if item.UnitPrice.Cmp(decimal.Zero) <= 0 {
			errs = append(errs, ValidationError{Field: prefix + ".unit_price", Message: "item unit price must be positive"})
		}
	}

	if strings.TrimSpace(o.DeliveryAddress.Street) == "" {
		errs = append(errs, ValidationError{Field: "delivery_address.street", Message: "street is required"})
	}
	if strings.TrimSpace(o.DeliveryAddress.City) == "" {
		errs = append(errs, ValidationError{Field: "delivery_address.city", Message: "city is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ComputePricing builds the creation-time cost snapshot. Monetary values are
// rounded to cents; the total never goes below zero even with an oversized
// discount.
func ComputePricing(items []OrderItem, fees FeeSchedule, discount decimal.Decimal) Pricing {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	serviceFee := subtotal.Mul(fees.ServiceFeeRate).Round(2)
	tax := subtotal.Mul(fees.TaxRate).Round(2)

	total := subtotal.Add(fees.DeliveryFee).Add(serviceFee).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Pricing{
		Subtotal:    subtotal.Round(2),
		DeliveryFee: fees.DeliveryFee.Round(2),
		ServiceFee:  serviceFee,
		Tax:         tax,
		Discount:    discount.Round(2),
		Total:       total.Round(2),
	}
}

// TransitionTo moves the order to newStatus, appending a history entry.
// Assignment must go through Assign; cancellation through Cancel.
func (o *Order) TransitionTo(newStatus Status, changedBy string, note *string) error {
	if newStatus == StatusAssigned || newStatus == StatusCancelled {
		return ErrInvalidTransition
	}
	if !o.Status.CanTransitionTo(newStatus) {
		return ErrInvalidTransition
	}

	o.applyStatus(newStatus, changedBy, note)

	if newStatus == StatusDelivered {
		now := time.Now().UTC()
		o.ActualDelivery = &now
	}

	return nil
}

// Cancel moves the order to cancelled, recording the reason. Permitted only
// while the kitchen can still stop: pending, confirmed or preparing.
func (o *Order) Cancel(changedBy, reason string) error {
	if !o.Status.Cancellable() {
		return ErrInvalidTransition
	}

	o.StatusReason = &reason
	o.applyStatus(StatusCancelled, changedBy, &reason)
	return nil
}

// Assign moves a ready, unassigned order to assigned and records the courier.
// This is the only path into StatusAssigned.
func (o *Order) Assign(courierID, changedBy string) error {
	if o.Status != StatusReady || o.DeliveryPersonID != nil {
		return ErrInvalidTransition
	}

	o.DeliveryPersonID = &courierID
	o.applyStatus(StatusAssigned, changedBy, nil)
	return nil
}

// Rate records the customer rating. Only a delivered, not-yet-rated order
// accepts one; each score must be 1-5.
func (o *Order) Rate(r Rating) error {
	if o.Status != StatusDelivered {
		return ErrNotDelivered
	}
	if o.Rating != nil {
		return ErrAlreadyRated
	}

	var errs ValidationErrors
	for _, score := range []struct {
		field string
		value int
	}{
		{"food", r.Food},
		{"delivery", r.Delivery},
		{"overall", r.Overall},
	} {
		if score.value < 1 || score.value > 5 {
			errs = append(errs, ValidationError{Field: "rating." + score.field, Message: "score must be between 1 and 5"})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	r.RatedAt = time.Now().UTC()
	o.Rating = &r
	o.UpdatedAt = r.RatedAt
	return nil
}

func (o *Order) applyStatus(newStatus Status, changedBy string, note *string) {
	now := time.Now().UTC()
	o.Status = newStatus
	o.UpdatedAt = now
	o.History = append(o.History, StatusLog{
		OrderID:   o.ID,
		Status:    newStatus,
		ChangedBy: changedBy,
		ChangedAt: now,
		Note:      note,
	})
}

// VisibleTo reports whether the principal may read this order.
func (o *Order) VisibleTo(p Principal) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleCustomer:
		return o.CustomerID == p.ID
	case RoleRestaurantOwner:
		return o.RestaurantID == p.ID
	case RoleDelivery:
		return o.DeliveryPersonID != nil && *o.DeliveryPersonID == p.ID
	default:
		return false
	}
}
