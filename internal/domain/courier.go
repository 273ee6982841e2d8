package domain

import (
	"errors"
	"time"
)

// Courier represents a delivery person registered with the dispatch pool.
type Courier struct {
	ID              int
	Name            string
	Zones           []string
	Status          CourierStatus
	LastSeen        time.Time
	OrdersDelivered int
	CreatedAt       time.Time
}

type CourierStatus string

const (
	CourierStatusOnline  CourierStatus = "online"
	CourierStatusOffline CourierStatus = "offline"
)

// NewCourier creates a new courier. Zones restrict which delivery cities the
// courier accepts offers for; empty means any.
func NewCourier(name string, zones []string) (*Courier, error) {
	if name == "" {
		return nil, errors.New("courier name is required")
	}

	return &Courier{
		Name:      name,
		Zones:     zones,
		Status:    CourierStatusOnline,
		LastSeen:  time.Now(),
		CreatedAt: time.Now(),
	}, nil
}

// UpdateHeartbeat updates the courier's last seen timestamp
func (c *Courier) UpdateHeartbeat() {
	c.LastSeen = time.Now()
	c.Status = CourierStatusOnline
}

// SetOffline marks the courier as offline
func (c *Courier) SetOffline() {
	c.Status = CourierStatusOffline
}

// Serves reports whether the courier accepts deliveries in the given city.
func (c *Courier) Serves(city string) bool {
	if len(c.Zones) == 0 {
		return true
	}
	for _, zone := range c.Zones {
		if zone == city {
			return true
		}
	}
	return false
}

// IsOnline checks if the courier is considered online based on last heartbeat
func (c *Courier) IsOnline(heartbeatTimeout time.Duration) bool {
	if c.Status == CourierStatusOffline {
		return false
	}
	return time.Since(c.LastSeen) <= heartbeatTimeout
}
