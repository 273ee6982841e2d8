package browse

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/domain"
)

type mockOrderRepo struct {
	createFn              func(ctx context.Context, order *domain.Order) error
	findByIDFn            func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	findByNumberFn        func(ctx context.Context, number string) (*domain.Order, error)
	updateStatusWithLogFn func(ctx context.Context, order *domain.Order, expected domain.Status, changedBy string, note *string) error
	assignWithLogFn       func(ctx context.Context, order *domain.Order, changedBy string) error
	setRatingFn           func(ctx context.Context, orderID uuid.UUID, rating domain.Rating) error
	searchFn              func(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error)
	getStatusHistoryFn    func(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)
	statsFn               func(ctx context.Context, scope domain.StatsScope) (*domain.OrderStats, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	return m.createFn(ctx, order)
}
func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockOrderRepo) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return m.findByNumberFn(ctx, number)
}
func (m *mockOrderRepo) UpdateStatusWithLog(ctx context.Context, order *domain.Order, expected domain.Status, changedBy string, note *string) error {
	return m.updateStatusWithLogFn(ctx, order, expected, changedBy, note)
}
func (m *mockOrderRepo) AssignWithLog(ctx context.Context, order *domain.Order, changedBy string) error {
	return m.assignWithLogFn(ctx, order, changedBy)
}
func (m *mockOrderRepo) SetRating(ctx context.Context, orderID uuid.UUID, rating domain.Rating) error {
	return m.setRatingFn(ctx, orderID, rating)
}
func (m *mockOrderRepo) Search(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
	return m.searchFn(ctx, filter)
}
func (m *mockOrderRepo) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	return m.getStatusHistoryFn(ctx, orderID)
}
func (m *mockOrderRepo) Stats(ctx context.Context, scope domain.StatsScope) (*domain.OrderStats, error) {
	return m.statsFn(ctx, scope)
}

type mockCourierRepo struct {
	listAllFn func(ctx context.Context) ([]*domain.Courier, error)
}

func (m *mockCourierRepo) Create(ctx context.Context, courier *domain.Courier) error { return nil }
func (m *mockCourierRepo) FindByName(ctx context.Context, name string) (*domain.Courier, error) {
	return nil, domain.ErrCourierNotFound
}
func (m *mockCourierRepo) Update(ctx context.Context, courier *domain.Courier) error { return nil }
func (m *mockCourierRepo) UpdateHeartbeat(ctx context.Context, name string) error    { return nil }
func (m *mockCourierRepo) ListAll(ctx context.Context) ([]*domain.Courier, error) {
	return m.listAllFn(ctx)
}
func (m *mockCourierRepo) IncrementOrdersDelivered(ctx context.Context, name string) error {
	return nil
}

func newBrowseService(orders *mockOrderRepo, couriers *mockCourierRepo) *Service {
	return NewService(orders, couriers, logger.New("test"))
}

func TestListOrdersScopesByRole(t *testing.T) {
	cases := []struct {
		role  domain.Role
		check func(t *testing.T, f domain.OrderFilter, id string)
	}{
		{domain.RoleCustomer, func(t *testing.T, f domain.OrderFilter, id string) {
			require.NotNil(t, f.CustomerID)
			assert.Equal(t, id, *f.CustomerID)
		}},
		{domain.RoleRestaurantOwner, func(t *testing.T, f domain.OrderFilter, id string) {
			require.NotNil(t, f.RestaurantID)
			assert.Equal(t, id, *f.RestaurantID)
		}},
		{domain.RoleDelivery, func(t *testing.T, f domain.OrderFilter, id string) {
			require.NotNil(t, f.DeliveryPersonID)
			assert.Equal(t, id, *f.DeliveryPersonID)
		}},
		{domain.RoleAdmin, func(t *testing.T, f domain.OrderFilter, id string) {
			assert.Nil(t, f.CustomerID)
			assert.Nil(t, f.RestaurantID)
			assert.Nil(t, f.DeliveryPersonID)
		}},
	}

	for _, tc := range cases {
		var captured domain.OrderFilter
		repo := &mockOrderRepo{
			searchFn: func(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
				captured = filter
				return nil, 0, nil
			},
		}
		svc := newBrowseService(repo, &mockCourierRepo{})

		_, err := svc.ListOrders(context.Background(), domain.Principal{ID: "actor-1", Role: tc.role}, nil, 0, 0)
		require.NoError(t, err, "role %s", tc.role)
		tc.check(t, captured, "actor-1")
	}
}

func TestListOrdersAppliesPaginationDefaults(t *testing.T) {
	var captured domain.OrderFilter
	repo := &mockOrderRepo{
		searchFn: func(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
			captured = filter
			return nil, 0, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	_, err := svc.ListOrders(context.Background(), domain.Principal{ID: "c", Role: domain.RoleCustomer}, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, 10, captured.Limit)

	_, err = svc.ListOrders(context.Background(), domain.Principal{ID: "c", Role: domain.RoleCustomer}, nil, 3, 500)
	require.NoError(t, err)
	assert.Equal(t, 3, captured.Page)
	assert.Equal(t, 100, captured.Limit)
}

func TestListOrdersTotalPages(t *testing.T) {
	repo := &mockOrderRepo{
		searchFn: func(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
			return nil, 25, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	page, err := svc.ListOrders(context.Background(), domain.Principal{ID: "c", Role: domain.RoleCustomer}, nil, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
}

func TestAvailableOrders(t *testing.T) {
	var captured domain.OrderFilter
	repo := &mockOrderRepo{
		searchFn: func(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
			captured = filter
			return nil, 0, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	_, err := svc.AvailableOrders(context.Background(), domain.Principal{ID: "courier-1", Role: domain.RoleDelivery}, 0, 0)
	require.NoError(t, err)

	require.NotNil(t, captured.Status)
	assert.Equal(t, domain.StatusReady, *captured.Status)
	assert.True(t, captured.Unassigned)

	_, err = svc.AvailableOrders(context.Background(), domain.Principal{ID: "c", Role: domain.RoleCustomer}, 0, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTrackOrderAccess(t *testing.T) {
	order := &domain.Order{
		ID:           uuid.New(),
		Number:       "ORD-TEST",
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Status:       domain.StatusOnTheWay,
	}
	repo := &mockOrderRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
			return order, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	tracking, err := svc.TrackOrder(context.Background(), domain.Principal{ID: "customer-1", Role: domain.RoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, tracking.OrderNumber)
	assert.Equal(t, domain.StatusOnTheWay, tracking.Status)

	_, err = svc.TrackOrder(context.Background(), domain.Principal{ID: "admin", Role: domain.RoleAdmin}, order.ID)
	require.NoError(t, err)

	// owners and couriers use the full order endpoints instead
	_, err = svc.TrackOrder(context.Background(), domain.Principal{ID: "restaurant-1", Role: domain.RoleRestaurantOwner}, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.TrackOrder(context.Background(), domain.Principal{ID: "customer-2", Role: domain.RoleCustomer}, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrderHistory(t *testing.T) {
	order := &domain.Order{ID: uuid.New(), CustomerID: "customer-1"}
	logs := []*domain.StatusLog{
		{OrderID: order.ID, Status: domain.StatusPending},
		{OrderID: order.ID, Status: domain.StatusConfirmed},
	}
	repo := &mockOrderRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
			return order, nil
		},
		getStatusHistoryFn: func(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
			return logs, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	history, err := svc.OrderHistory(context.Background(), domain.Principal{ID: "customer-1", Role: domain.RoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.OrderHistory(context.Background(), domain.Principal{ID: "stranger", Role: domain.RoleCustomer}, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStatsScoping(t *testing.T) {
	var captured domain.StatsScope
	repo := &mockOrderRepo{
		statsFn: func(ctx context.Context, scope domain.StatsScope) (*domain.OrderStats, error) {
			captured = scope
			return &domain.OrderStats{TotalOrders: 7, TotalRevenue: decimal.RequireFromString("140.00")}, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	_, err := svc.Stats(context.Background(), domain.Principal{ID: "restaurant-1", Role: domain.RoleRestaurantOwner}, domain.PeriodWeek)
	require.NoError(t, err)
	require.NotNil(t, captured.RestaurantID)
	assert.Equal(t, "restaurant-1", *captured.RestaurantID)
	assert.Nil(t, captured.DeliveryPersonID)

	_, err = svc.Stats(context.Background(), domain.Principal{ID: "courier-1", Role: domain.RoleDelivery}, domain.PeriodDay)
	require.NoError(t, err)
	require.NotNil(t, captured.DeliveryPersonID)
	assert.Equal(t, "courier-1", *captured.DeliveryPersonID)

	_, err = svc.Stats(context.Background(), domain.Principal{ID: "admin", Role: domain.RoleAdmin}, domain.PeriodMonth)
	require.NoError(t, err)
	assert.Nil(t, captured.RestaurantID)
	assert.Nil(t, captured.DeliveryPersonID)

	_, err = svc.Stats(context.Background(), domain.Principal{ID: "customer-1", Role: domain.RoleCustomer}, domain.PeriodDay)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStatsWindow(t *testing.T) {
	var captured domain.StatsScope
	repo := &mockOrderRepo{
		statsFn: func(ctx context.Context, scope domain.StatsScope) (*domain.OrderStats, error) {
			captured = scope
			return &domain.OrderStats{}, nil
		},
	}
	svc := newBrowseService(repo, &mockCourierRepo{})

	_, err := svc.Stats(context.Background(), domain.Principal{ID: "admin", Role: domain.RoleAdmin}, domain.PeriodWeek)
	require.NoError(t, err)

	expected := time.Now().UTC().AddDate(0, 0, -7)
	assert.WithinDuration(t, expected, captured.From, time.Minute)
}

func TestCouriersStatus(t *testing.T) {
	now := time.Now()
	couriers := &mockCourierRepo{
		listAllFn: func(ctx context.Context) ([]*domain.Courier, error) {
			return []*domain.Courier{
				{Name: "fresh", Status: domain.CourierStatusOnline, LastSeen: now},
				{Name: "stale", Status: domain.CourierStatusOnline, LastSeen: now.Add(-5 * time.Minute)},
				{Name: "off", Status: domain.CourierStatusOffline, LastSeen: now},
			}, nil
		},
	}
	svc := newBrowseService(&mockOrderRepo{}, couriers)

	resp, err := svc.CouriersStatus(context.Background(), domain.Principal{ID: "admin", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, resp, 3)

	assert.Equal(t, domain.CourierStatusOnline, resp[0].Status)
	// online in the DB but heartbeat too old
	assert.Equal(t, domain.CourierStatusOffline, resp[1].Status)
	assert.Equal(t, domain.CourierStatusOffline, resp[2].Status)

	_, err = svc.CouriersStatus(context.Background(), domain.Principal{ID: "courier-1", Role: domain.RoleDelivery})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
