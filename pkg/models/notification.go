package models

import "time"

// Notification is one entry in the append-only user-facing notification log.
type Notification struct {
	ID             string    `json:"id" db:"id"`
	RecipientEmail string    `json:"recipient_email" db:"recipient_email"`
	Subject        string    `json:"subject" db:"subject"`
	Message        string    `json:"message" db:"message"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
