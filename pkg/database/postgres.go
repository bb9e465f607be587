package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"picotask-rush-backend/pkg/models"
)

// PostgresStore implements Store on PostgreSQL via database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a pooled connection and verifies it with a ping.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// UpsertUserOnLogin implements the login-or-create-or-status-request upsert.
// Concurrent logins for the same email race benignly: the unique index keeps
// the collection unique-by-email and the loser surfaces a conflict error.
func (s *PostgresStore) UpsertUserOnLogin(ctx context.Context, user *models.User) (models.UpsertOutcome, *models.User, error) {
	existing, err := s.GetUserByEmail(ctx, user.Email)
	if err != nil && err != ErrNotFound {
		return "", nil, err
	}

	if existing == nil {
		created := &models.User{
			ID:     uuid.New().String(),
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
			Status: user.Status,
		}
		query := `
			INSERT INTO users (id, email, name, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := s.db.QueryRowContext(ctx, query,
			created.ID, created.Email, created.Name, created.Role, created.Status).
			Scan(&created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return "", nil, fmt.Errorf("insert user: %w", err)
		}
		return models.UpsertCreated, created, nil
	}

	if user.Status == models.StatusRequested {
		query := `
			UPDATE users SET status = $1, updated_at = NOW()
			WHERE email = $2
			RETURNING updated_at
		`
		if err := s.db.QueryRowContext(ctx, query, models.StatusRequested, user.Email).Scan(&existing.UpdatedAt); err != nil {
			return "", nil, fmt.Errorf("update user status: %w", err)
		}
		existing.Status = models.StatusRequested
		return models.UpsertStatusUpdated, existing, nil
	}

	// Ordinary login: return the stored record untouched, never merging the
	// incoming payload.
	return models.UpsertUnchanged, existing, nil
}

// GetUserByEmail fetches a user by its natural key.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, COALESCE(name,''), COALESCE(role,''), COALESCE(status,''),
		       created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users, oldest first.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, email, COALESCE(name,''), COALESCE(role,''), COALESCE(status,''),
		       created_at, updated_at
		FROM users
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// PromoteUserToAdmin unconditionally assigns the admin role. There is no
// demotion path through this operation.
func (s *PostgresStore) PromoteUserToAdmin(ctx context.Context, id string) error {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, models.RoleAdmin, id)
	if err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PatchUserByEmail merges the allowed fields and refreshes the timestamp.
func (s *PostgresStore) PatchUserByEmail(ctx context.Context, email string, fields map[string]interface{}) error {
	sets := []string{}
	args := []interface{}{}
	i := 1
	for key, value := range fields {
		col, ok := patchableUserColumns[key]
		if !ok {
			return fmt.Errorf("field %q: %w", key, ErrNotPatchable)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, value)
		i++
	}
	if len(sets) == 0 {
		return fmt.Errorf("no fields to patch")
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, email)

	query := fmt.Sprintf("UPDATE users SET %s WHERE email = $%d", strings.Join(sets, ", "), i)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patch user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by id; deleting an absent user is a no-op.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CreateTask inserts a new task with a server-assigned id.
func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	query := `
		INSERT INTO tasks (id, creator_email, title, quantity, payable_amount, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		task.ID, task.CreatorEmail, task.Title, task.Quantity, task.PayableAmount, task.Details).
		Scan(&task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask fetches one task by id.
func (s *PostgresStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT id, creator_email, title, quantity, payable_amount, COALESCE(details,''), created_at
		FROM tasks
		WHERE id = $1
	`
	var t models.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.CreatorEmail, &t.Title, &t.Quantity, &t.PayableAmount, &t.Details, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// ListTasks returns the public catalog, oldest first.
func (s *PostgresStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	query := `
		SELECT id, creator_email, title, quantity, payable_amount, COALESCE(details,''), created_at
		FROM tasks
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.CreatorEmail, &t.Title, &t.Quantity, &t.PayableAmount, &t.Details, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpsertTaskFields updates the three mutable fields, creating the record under
// the externally supplied id when it does not exist. creator_email is never
// touched on the update path. Concurrent upserts for the same id are
// last-writer-wins.
func (s *PostgresStore) UpsertTaskFields(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error) {
	query := `
		INSERT INTO tasks (id, creator_email, title, quantity, payable_amount, details, created_at)
		VALUES ($1, '', $2, $3, 0, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, quantity = EXCLUDED.quantity, details = EXCLUDED.details
		RETURNING id, creator_email, title, quantity, payable_amount, details, created_at
	`
	var t models.Task
	err := s.db.QueryRowContext(ctx, query, id, update.Title, update.Quantity, update.Details).Scan(
		&t.ID, &t.CreatorEmail, &t.Title, &t.Quantity, &t.PayableAmount, &t.Details, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert task: %w", err)
	}
	return &t, nil
}

// DeleteTask removes a task permanently. No soft-delete.
func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSubmission appends one submission to the ledger.
func (s *PostgresStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.New().String()
	}
	query := `
		INSERT INTO submissions (id, task_id, worker_email, creator_email, content, submitted_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING submitted_at
	`
	err := s.db.QueryRowContext(ctx, query,
		submission.ID, submission.TaskID, submission.WorkerEmail, submission.CreatorEmail, submission.Content).
		Scan(&submission.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns the full ledger ordered by submission time, so
// reviewers can reconcile duplicates by recency.
func (s *PostgresStore) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	query := `
		SELECT id, task_id, worker_email, creator_email, COALESCE(content,''), submitted_at
		FROM submissions
		ORDER BY submitted_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.WorkerEmail, &sub.CreatorEmail, &sub.Content, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

// CreatePayment appends one completed payment.
func (s *PostgresStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Currency == "" {
		payment.Currency = "usd"
	}
	query := `
		INSERT INTO payments (id, creator_email, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		payment.ID, payment.CreatorEmail, payment.Amount, payment.Currency).
		Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListPayments returns all recorded payments, oldest first.
func (s *PostgresStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	query := `
		SELECT id, creator_email, amount, currency, created_at
		FROM payments
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.CreatorEmail, &p.Amount, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// CreateNotification appends one notification to the log.
func (s *PostgresStore) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notifications (id, recipient_email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		notification.ID, notification.RecipientEmail, notification.Subject, notification.Message).
		Scan(&notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications filters by recipient; an empty email returns everything.
func (s *PostgresStore) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	query := `
		SELECT id, recipient_email, COALESCE(subject,''), COALESCE(message,''), created_at
		FROM notifications
	`
	args := []interface{}{}
	if email != "" {
		query += ` WHERE recipient_email = $1`
		args = append(args, email)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientEmail, &n.Subject, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// HealthCheck pings the database.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
