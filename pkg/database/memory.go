package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"picotask-rush-backend/pkg/models"
)

// MemoryStore implements Store on in-process maps. It backs development runs
// without a database and the handler tests. Safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[string]*models.User // keyed by email
	userOrder []string

	tasks     map[string]*models.Task
	taskOrder []string

	submissions   []models.Submission
	payments      []models.Payment
	notifications []models.Notification
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: map[string]*models.User{},
		tasks: map[string]*models.Task{},
	}
}

func (s *MemoryStore) UpsertUserOnLogin(_ context.Context, user *models.User) (models.UpsertOutcome, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.Email]
	if !ok {
		now := time.Now()
		created := &models.User{
			ID:        uuid.New().String(),
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Status:    user.Status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.users[user.Email] = created
		s.userOrder = append(s.userOrder, user.Email)
		out := *created
		return models.UpsertCreated, &out, nil
	}

	if user.Status == models.StatusRequested {
		existing.Status = models.StatusRequested
		existing.UpdatedAt = time.Now()
		out := *existing
		return models.UpsertStatusUpdated, &out, nil
	}

	out := *existing
	return models.UpsertUnchanged, &out, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.userOrder))
	for _, email := range s.userOrder {
		users = append(users, *s.users[email])
	}
	return users, nil
}

func (s *MemoryStore) PromoteUserToAdmin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ID == id {
			user.Role = models.RoleAdmin
			user.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) PatchUserByEmail(_ context.Context, email string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return ErrNotFound
	}

	for key, value := range fields {
		str, _ := value.(string)
		switch key {
		case "name":
			user.Name = str
		case "role":
			user.Role = str
		case "status":
			user.Status = str
		default:
			return fmt.Errorf("field %q: %w", key, ErrNotPatchable)
		}
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for email, user := range s.users {
		if user.ID == id {
			delete(s.users, email)
			for i, e := range s.userOrder {
				if e == email {
					s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
					break
				}
			}
			return nil
		}
	}
	// Deleting an absent user is a no-op.
	return nil
}

func (s *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()

	stored := *task
	s.tasks[task.ID] = &stored
	s.taskOrder = append(s.taskOrder, task.ID)
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *task
	return &out, nil
}

func (s *MemoryStore) ListTasks(_ context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		tasks = append(tasks, *s.tasks[id])
	}
	return tasks, nil
}

func (s *MemoryStore) UpsertTaskFields(_ context.Context, id string, update models.TaskUpdate) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		task = &models.Task{ID: id, CreatedAt: time.Now()}
		s.tasks[id] = task
		s.taskOrder = append(s.taskOrder, id)
	}
	task.Title = update.Title
	task.Quantity = update.Quantity
	task.Details = update.Details

	out := *task
	return &out, nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	for i, t := range s.taskOrder {
		if t == id {
			s.taskOrder = append(s.taskOrder[:i], s.taskOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) CreateSubmission(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if submission.ID == "" {
		submission.ID = uuid.New().String()
	}
	submission.SubmittedAt = time.Now()
	s.submissions = append(s.submissions, *submission)
	return nil
}

func (s *MemoryStore) ListSubmissions(_ context.Context) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Submission, len(s.submissions))
	copy(out, s.submissions)
	return out, nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Currency == "" {
		payment.Currency = "usd"
	}
	payment.CreatedAt = time.Now()
	s.payments = append(s.payments, *payment)
	return nil
}

func (s *MemoryStore) ListPayments(_ context.Context) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Payment, len(s.payments))
	copy(out, s.payments)
	return out, nil
}

func (s *MemoryStore) CreateNotification(_ context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()
	s.notifications = append(s.notifications, *notification)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, email string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if email == "" {
		out := make([]models.Notification, len(s.notifications))
		copy(out, s.notifications)
		return out, nil
	}

	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.RecipientEmail == email {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
