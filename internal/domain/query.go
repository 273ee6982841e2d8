package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// OrderFilter has AND semantics across fields. Party fields scope listings to
// a single actor; Unassigned restricts to orders without a courier.
type OrderFilter struct {
	CustomerID       *string
	RestaurantID     *string
	DeliveryPersonID *string
	Status           *Status
	Unassigned       bool
	Page             int
	Limit            int
}

// Normalize applies the listing defaults (page 1, limit 10) and caps the
// page size.
func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

func (f *OrderFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ToPeriod parses a stats period, defaulting to day when empty.
func ToPeriod(s string) (Period, error) {
	if s == "" {
		return PeriodDay, nil
	}
	switch p := Period(s); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("invalid stats period %q", s)
	}
}

// Start returns the beginning of the aggregation window ending at now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -1)
	}
}

// StatsScope narrows the aggregation to one actor; both nil means all orders.
type StatsScope struct {
	From             time.Time
	RestaurantID     *string
	DeliveryPersonID *string
}

// OrderStats is the read-side aggregate over orders in a scope.
type OrderStats struct {
	TotalOrders       int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	Completed         int
	Cancelled         int
}
