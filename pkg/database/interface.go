package database

import (
	"context"
	"errors"

	"picotask-rush-backend/pkg/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotPatchable is returned when a user patch names a field outside the
// allowed set.
var ErrNotPatchable = errors.New("field is not patchable")

// Store is the persistence boundary for all collections. Collections are
// independent: relations between tasks, submissions and payments are
// denormalized email/id fields with no referential integrity, resolved by
// callers at query time.
type Store interface {
	// Users
	//
	// UpsertUserOnLogin is keyed by email. A missing record is inserted with
	// a server-assigned timestamp. An existing record is updated only when
	// the payload requests status "Requested"; any other payload leaves the
	// stored record untouched so ordinary logins never clobber fields.
	UpsertUserOnLogin(ctx context.Context, user *models.User) (models.UpsertOutcome, *models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	PromoteUserToAdmin(ctx context.Context, id string) error
	// PatchUserByEmail merges the given fields plus a refreshed timestamp.
	// Allowed keys: "name", "role", "status".
	PatchUserByEmail(ctx context.Context, email string, fields map[string]interface{}) error
	DeleteUser(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	// UpsertTaskFields updates title/quantity/details of an existing task,
	// or creates a record with exactly those fields under the supplied id.
	UpsertTaskFields(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Submissions (append-only)
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	ListSubmissions(ctx context.Context) ([]models.Submission, error)

	// Payments (append-only)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context) ([]models.Payment, error)

	// Notifications (append-only)
	CreateNotification(ctx context.Context, notification *models.Notification) error
	// ListNotifications filters by recipient email; an empty email returns
	// the entire log.
	ListNotifications(ctx context.Context, email string) ([]models.Notification, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

// patchableUserColumns maps patch keys to their columns. The relational
// schema constrains the admin patch to real columns, unlike a document store.
var patchableUserColumns = map[string]string{
	"name":   "name",
	"role":   "role",
	"status": "status",
}
