package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusOnTheWay  Status = "on_the_way"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]struct{}{
	StatusPending:   {},
	StatusConfirmed: {},
	StatusPreparing: {},
	StatusReady:     {},
	StatusAssigned:  {},
	StatusPickedUp:  {},
	StatusOnTheWay:  {},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ToStatus parses a raw string into a Status, rejecting anything outside
// the fixed vocabulary.
func ToStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// validTransitions is the single source of truth for the order state machine.
// StatusAssigned is only reachable through the assignment operation, which
// additionally records the courier; see Order.Assign.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusAssigned},
	StatusAssigned:  {StatusPickedUp},
	StatusPickedUp:  {StatusOnTheWay},
	StatusOnTheWay:  {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransitionTo checks if an order can move from s to newStatus.
func (s Status) CanTransitionTo(newStatus Status) bool {
	for _, next := range validTransitions[s] {
		if next == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status changes are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether an order in this status may still be cancelled.
// Once the kitchen has finished (ready and later), cancellation is refused.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusPreparing
}

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int64
	OrderID   uuid.UUID
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Note      *string
}
