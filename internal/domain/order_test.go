package domain

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFees() FeeSchedule {
	return FeeSchedule{
		DeliveryFee:    decimal.RequireFromString("2.50"),
		ServiceFeeRate: decimal.RequireFromString("0.10"),
		TaxRate:        decimal.RequireFromString("0.08"),
	}
}

func testItems() []OrderItem {
	return []OrderItem{
		{MealID: uuid.New(), Name: gofakeit.Dinner(), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{MealID: uuid.New(), Name: gofakeit.Drink(), Quantity: 1, UnitPrice: decimal.RequireFromString("3.50")},
	}
}

func testAddress() Address {
	return Address{
		Street: gofakeit.Street(),
		City:   gofakeit.City(),
		State:  gofakeit.State(),
		Zip:    gofakeit.Zip(),
	}
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder(gofakeit.UUID(), gofakeit.UUID(), testItems(), testAddress(), "card", testFees())
	require.NoError(t, err)
	return order
}

func TestNewOrder(t *testing.T) {
	customerID := gofakeit.UUID()
	order, err := NewOrder(customerID, gofakeit.UUID(), testItems(), testAddress(), "card", testFees())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, NewOrderNumber(order.ID), order.Number)
	assert.Nil(t, order.DeliveryPersonID)
	assert.Nil(t, order.Rating)

	require.Len(t, order.History, 1)
	assert.Equal(t, StatusPending, order.History[0].Status)
	assert.Equal(t, customerID, order.History[0].ChangedBy)
	assert.Equal(t, order.ID, order.History[0].OrderID)
}

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder("", "", nil, Address{}, "", testFees())
	require.Error(t, err)

	ves, ok := AsValidationErrors(err)
	require.True(t, ok)

	fields := make(map[string]bool)
	for _, ve := range ves {
		fields[ve.Field] = true
	}
	assert.True(t, fields["customer_id"])
	assert.True(t, fields["restaurant_id"])
	assert.True(t, fields["payment_method"])
	assert.True(t, fields["items"])
	assert.True(t, fields["delivery_address.street"])
	assert.True(t, fields["delivery_address.city"])
}

func TestNewOrderRejectsBadItems(t *testing.T) {
	items := []OrderItem{
		{MealID: uuid.Nil, Quantity: 0, UnitPrice: decimal.Zero},
	}
	_, err := NewOrder(gofakeit.UUID(), gofakeit.UUID(), items, testAddress(), "card", testFees())
	require.Error(t, err)

	ves, ok := AsValidationErrors(err)
	require.True(t, ok)

	fields := make(map[string]bool)
	for _, ve := range ves {
		fields[ve.Field] = true
	}
	assert.True(t, fields["items[0].meal_id"])
	assert.True(t, fields["items[0].quantity"])
	assert.True(t, fields["items[0].unit_price"])
}

func TestNewOrderNumberFormat(t *testing.T) {
	id := uuid.New()
	number := NewOrderNumber(id)

	assert.True(t, strings.HasPrefix(number, "ORD-"))
	assert.Len(t, number, 17)
	assert.Equal(t, number, NewOrderNumber(id))
	assert.NotEqual(t, number, NewOrderNumber(uuid.New()))
}

func TestComputePricing(t *testing.T) {
	// subtotal = 2*10.00 + 1*3.50 = 23.50
	// service fee = 2.35, tax = 1.88, delivery = 2.50
	pricing := ComputePricing(testItems(), testFees(), decimal.Zero)

	assert.Equal(t, "23.50", pricing.Subtotal.StringFixed(2))
	assert.Equal(t, "2.50", pricing.DeliveryFee.StringFixed(2))
	assert.Equal(t, "2.35", pricing.ServiceFee.StringFixed(2))
	assert.Equal(t, "1.88", pricing.Tax.StringFixed(2))
	assert.Equal(t, "30.23", pricing.Total.StringFixed(2))
}

func TestComputePricingDiscountFloorsAtZero(t *testing.T) {
	discount := decimal.RequireFromString("1000.00")
	pricing := ComputePricing(testItems(), testFees(), discount)

	assert.Equal(t, "0.00", pricing.Total.StringFixed(2))
}

func TestTransitionToAppendsHistory(t *testing.T) {
	order := newTestOrder(t)
	owner := gofakeit.UUID()

	require.NoError(t, order.TransitionTo(StatusConfirmed, owner, nil))
	require.NoError(t, order.TransitionTo(StatusPreparing, owner, nil))
	require.NoError(t, order.TransitionTo(StatusReady, owner, nil))

	assert.Equal(t, StatusReady, order.Status)
	require.Len(t, order.History, 4)
	assert.Equal(t, StatusReady, order.History[3].Status)
	assert.Equal(t, owner, order.History[3].ChangedBy)
}

func TestTransitionToRejectsIllegalMove(t *testing.T) {
	order := newTestOrder(t)
	assert.ErrorIs(t, order.TransitionTo(StatusDelivered, "admin", nil), ErrInvalidTransition)
	assert.Equal(t, StatusPending, order.Status)
	assert.Len(t, order.History, 1)
}

func TestTransitionToRefusesAssignedAndCancelled(t *testing.T) {
	order := newTestOrder(t)
	assert.ErrorIs(t, order.TransitionTo(StatusCancelled, "admin", nil), ErrInvalidTransition)

	order.Status = StatusReady
	assert.ErrorIs(t, order.TransitionTo(StatusAssigned, "admin", nil), ErrInvalidTransition)
}

func TestTransitionToDeliveredSetsActualDelivery(t *testing.T) {
	order := newTestOrder(t)
	order.Status = StatusOnTheWay

	require.NoError(t, order.TransitionTo(StatusDelivered, "courier-1", nil))
	assert.NotNil(t, order.ActualDelivery)
}

func TestCancel(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusConfirmed, StatusPreparing} {
		order := newTestOrder(t)
		order.Status = status

		require.NoError(t, order.Cancel("customer-1", "changed my mind"))
		assert.Equal(t, StatusCancelled, order.Status)
		require.NotNil(t, order.StatusReason)
		assert.Equal(t, "changed my mind", *order.StatusReason)
	}

	for _, status := range []Status{StatusReady, StatusAssigned, StatusPickedUp, StatusOnTheWay, StatusDelivered, StatusCancelled} {
		order := newTestOrder(t)
		order.Status = status
		assert.ErrorIs(t, order.Cancel("customer-1", "too late"), ErrInvalidTransition, "status %s", status)
	}
}

func TestAssign(t *testing.T) {
	order := newTestOrder(t)
	order.Status = StatusReady

	require.NoError(t, order.Assign("courier-1", "courier-1"))
	assert.Equal(t, StatusAssigned, order.Status)
	require.NotNil(t, order.DeliveryPersonID)
	assert.Equal(t, "courier-1", *order.DeliveryPersonID)
}

func TestAssignRequiresReadyAndUnassigned(t *testing.T) {
	order := newTestOrder(t)
	assert.ErrorIs(t, order.Assign("courier-1", "courier-1"), ErrInvalidTransition)

	order.Status = StatusReady
	taken := "courier-2"
	order.DeliveryPersonID = &taken
	assert.ErrorIs(t, order.Assign("courier-1", "courier-1"), ErrInvalidTransition)
}

func TestRate(t *testing.T) {
	order := newTestOrder(t)
	order.Status = StatusDelivered

	require.NoError(t, order.Rate(Rating{Food: 5, Delivery: 4, Overall: 5}))
	require.NotNil(t, order.Rating)
	assert.Equal(t, 5, order.Rating.Food)
	assert.False(t, order.Rating.RatedAt.IsZero())

	assert.ErrorIs(t, order.Rate(Rating{Food: 1, Delivery: 1, Overall: 1}), ErrAlreadyRated)
}

func TestRateRequiresDelivered(t *testing.T) {
	order := newTestOrder(t)
	assert.ErrorIs(t, order.Rate(Rating{Food: 5, Delivery: 5, Overall: 5}), ErrNotDelivered)
}

func TestRateValidatesScores(t *testing.T) {
	order := newTestOrder(t)
	order.Status = StatusDelivered

	err := order.Rate(Rating{Food: 0, Delivery: 6, Overall: 3})
	require.Error(t, err)

	ves, ok := AsValidationErrors(err)
	require.True(t, ok)
	require.Len(t, ves, 2)
	assert.Equal(t, "rating.food", ves[0].Field)
	assert.Equal(t, "rating.delivery", ves[1].Field)
	assert.Nil(t, order.Rating)
}

func TestVisibleTo(t *testing.T) {
	order := newTestOrder(t)
	courier := "courier-1"
	order.DeliveryPersonID = &courier

	assert.True(t, order.VisibleTo(Principal{ID: order.CustomerID, Role: RoleCustomer}))
	assert.False(t, order.VisibleTo(Principal{ID: "someone-else", Role: RoleCustomer}))

	assert.True(t, order.VisibleTo(Principal{ID: order.RestaurantID, Role: RoleRestaurantOwner}))
	assert.False(t, order.VisibleTo(Principal{ID: "other-restaurant", Role: RoleRestaurantOwner}))

	assert.True(t, order.VisibleTo(Principal{ID: courier, Role: RoleDelivery}))
	assert.False(t, order.VisibleTo(Principal{ID: "courier-2", Role: RoleDelivery}))

	assert.True(t, order.VisibleTo(Principal{ID: "anyone", Role: RoleAdmin}))
}

func TestCourierServes(t *testing.T) {
	anywhere := Courier{Name: "a"}
	assert.True(t, anywhere.Serves(gofakeit.City()))

	zoned := Courier{Name: "b", Zones: []string{"Astana", "Almaty"}}
	assert.True(t, zoned.Serves("Almaty"))
	assert.False(t, zoned.Serves("Karaganda"))
}
