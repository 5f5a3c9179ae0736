package model

import (
	"time"
)

// Contractor represents a registered mukkadam (labor crew leader).
// The mobile field may hold more than one number separated by commas,
// and crew size is kept as the free-form string operators type in.
type Contractor struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Mobile     string    `json:"mobile"`
	Village    string    `json:"village"`
	CrewSize   string    `json:"crew_size"`
	Smartphone bool      `json:"smartphone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
