package entity

import "time"

// Feedback represents a user note for data transfer between layers.
type Feedback struct {
	ID          int       `json:"id"`
	Message     string    `json:"message"`
	Rating      *int      `json:"rating,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
