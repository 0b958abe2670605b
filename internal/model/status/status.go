package status

import "time"

// Check records that a client pinged the backend.
type Check struct {
	ID         string    `json:"id"`
	ClientName string    `json:"clientName"`
	Timestamp  time.Time `json:"timestamp"`
}
