package models

import "time"

// Task is a paid micro-task posted by a creator. The ID is immutable once
// created; Quantity counts remaining work units and is never reconciled
// against submissions server-side.
type Task struct {
	ID            string    `json:"id" db:"id"`
	CreatorEmail  string    `json:"creator_email" db:"creator_email"`
	Title         string    `json:"title" db:"title"`
	Quantity      int       `json:"quantity" db:"quantity"`
	PayableAmount int64     `json:"payable_amount" db:"payable_amount"`
	Details       string    `json:"details,omitempty" db:"details"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TaskUpdate is the set of fields a creator may change after posting.
// An update against an unknown id creates a record carrying exactly these
// fields (the id comes from the URL, not the server).
type TaskUpdate struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Details  string `json:"details"`
}
