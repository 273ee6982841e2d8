package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToStatus(t *testing.T) {
	for _, raw := range []string{
		"pending", "confirmed", "preparing", "ready", "assigned",
		"picked_up", "on_the_way", "delivered", "cancelled",
	} {
		status, err := ToStatus(raw)
		assert.NoError(t, err)
		assert.Equal(t, Status(raw), status)
	}

	_, err := ToStatus("shipped")
	assert.Error(t, err)

	_, err = ToStatus("")
	assert.Error(t, err)
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPreparing, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusPreparing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusReady, false},
		{StatusPreparing, StatusReady, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusReady, StatusAssigned, true},
		{StatusReady, StatusCancelled, false},
		{StatusReady, StatusPickedUp, false},
		{StatusAssigned, StatusPickedUp, true},
		{StatusAssigned, StatusCancelled, false},
		{StatusPickedUp, StatusOnTheWay, true},
		{StatusOnTheWay, StatusDelivered, true},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for status := range validStatuses {
		if !status.IsTerminal() {
			continue
		}
		for other := range validStatuses {
			assert.False(t, status.CanTransitionTo(other), "%s -> %s", status, other)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusOnTheWay.IsTerminal())
}

func TestCancellable(t *testing.T) {
	assert.True(t, StatusPending.Cancellable())
	assert.True(t, StatusConfirmed.Cancellable())
	assert.True(t, StatusPreparing.Cancellable())

	assert.False(t, StatusReady.Cancellable())
	assert.False(t, StatusAssigned.Cancellable())
	assert.False(t, StatusPickedUp.Cancellable())
	assert.False(t, StatusOnTheWay.Cancellable())
	assert.False(t, StatusDelivered.Cancellable())
	assert.False(t, StatusCancelled.Cancellable())
}

func TestMaySetStatus(t *testing.T) {
	assert.True(t, RoleRestaurantOwner.MaySetStatus(StatusConfirmed))
	assert.True(t, RoleRestaurantOwner.MaySetStatus(StatusReady))
	assert.False(t, RoleRestaurantOwner.MaySetStatus(StatusDelivered))

	assert.True(t, RoleDelivery.MaySetStatus(StatusPickedUp))
	assert.True(t, RoleDelivery.MaySetStatus(StatusDelivered))
	assert.False(t, RoleDelivery.MaySetStatus(StatusConfirmed))
	assert.False(t, RoleDelivery.MaySetStatus(StatusCancelled))

	assert.True(t, RoleCustomer.MaySetStatus(StatusCancelled))
	assert.False(t, RoleCustomer.MaySetStatus(StatusConfirmed))

	for status := range validStatuses {
		if status == StatusPending {
			continue
		}
		assert.True(t, RoleAdmin.MaySetStatus(status), "admin should set %s", status)
	}
}
