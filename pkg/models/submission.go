package models

import "time"

// Submission is a worker's completed piece of work against a task. The ledger
// is append-only: corrections are new submissions, reviewers reconcile
// duplicates by SubmittedAt ordering.
type Submission struct {
	ID           string    `json:"id" db:"id"`
	TaskID       string    `json:"task_id" db:"task_id"`
	WorkerEmail  string    `json:"worker_email" db:"worker_email"`
	CreatorEmail string    `json:"creator_email" db:"creator_email"`
	Content      string    `json:"content,omitempty" db:"content"`
	SubmittedAt  time.Time `json:"submitted_at" db:"submitted_at"`
}
