package domain

import "fmt"

type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleDelivery        Role = "delivery"
	RoleAdmin           Role = "admin"
)

var validRoles = map[Role]struct{}{
	RoleCustomer:        {},
	RoleRestaurantOwner: {},
	RoleDelivery:        {},
	RoleAdmin:           {},
}

func ToRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := validRoles[role]; ok {
		return role, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Principal is the verified identity attached to every request. Upstream
// middleware has already authenticated it; the core only consults id and role.
type Principal struct {
	ID   string
	Role Role
}

// transitionRoles gates which roles may request each target status.
// Ownership checks (own restaurant, own assignment) are applied on top
// of this per operation.
var transitionRoles = map[Status][]Role{
	StatusConfirmed: {RoleRestaurantOwner, RoleAdmin},
	StatusPreparing: {RoleRestaurantOwner, RoleAdmin},
	StatusReady:     {RoleRestaurantOwner, RoleAdmin},
	StatusAssigned:  {RoleDelivery, RoleAdmin},
	StatusPickedUp:  {RoleDelivery, RoleAdmin},
	StatusOnTheWay:  {RoleDelivery, RoleAdmin},
	StatusDelivered: {RoleDelivery, RoleAdmin},
	StatusCancelled: {RoleCustomer, RoleRestaurantOwner, RoleAdmin},
}

// MaySetStatus checks the role gate for a requested target status.
func (r Role) MaySetStatus(newStatus Status) bool {
	for _, allowed := range transitionRoles[newStatus] {
		if allowed == r {
			return true
		}
	}
	return false
}
