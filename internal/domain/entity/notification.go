package entity

import "time"

// Notification is a local notification tied to a reminder identifier.
type Notification struct {
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	FireAt     time.Time `json:"fire_at"`
}
