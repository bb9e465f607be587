package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/notify"
	"picotask-rush-backend/pkg/utils"
)

// SubmissionHandler serves the submission ledger routes.
type SubmissionHandler struct {
	config     *config.Config
	store      database.Store
	dispatcher *notify.Dispatcher
}

// NewSubmissionHandler creates the submission handler.
func NewSubmissionHandler(cfg *config.Config, store database.Store, dispatcher *notify.Dispatcher) *SubmissionHandler {
	return &SubmissionHandler{config: cfg, store: store, dispatcher: dispatcher}
}

// CreateSubmission handles POST /submission. The ledger write is the only
// operation that can fail the request; the two notification side effects
// (worker confirmation, creator announcement) are best-effort and never undo
// or fail the submission.
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID       string `json:"task_id"`
		WorkerEmail  string `json:"worker_email"`
		CreatorEmail string `json:"creator_email"`
		Content      string `json:"content"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if strings.TrimSpace(req.TaskID) == "" || strings.TrimSpace(req.WorkerEmail) == "" {
		utils.WriteBadRequestResponse(w, "task_id and worker_email are required")
		return
	}

	creatorEmail := req.CreatorEmail
	if creatorEmail == "" {
		// Denormalized relation: resolve the creator from the task when the
		// client didn't send it. Best-effort, the ledger has no FK to tasks.
		if task, err := h.store.GetTask(r.Context(), req.TaskID); err == nil {
			creatorEmail = task.CreatorEmail
		}
	}

	submission := &models.Submission{
		TaskID:       req.TaskID,
		WorkerEmail:  req.WorkerEmail,
		CreatorEmail: creatorEmail,
		Content:      req.Content,
	}
	if err := h.store.CreateSubmission(r.Context(), submission); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to record submission")
		return
	}

	h.notifySubmission(r, submission)

	utils.WriteCreatedResponse(w, submission)
}

// notifySubmission appends the two notification records and enqueues their
// delivery. Failures are logged and swallowed.
func (h *SubmissionHandler) notifySubmission(r *http.Request, submission *models.Submission) {
	notifications := []models.Notification{
		{
			RecipientEmail: submission.WorkerEmail,
			Subject:        "Submission received",
			Message:        fmt.Sprintf("Your submission for task %s was recorded.", submission.TaskID),
		},
	}
	if submission.CreatorEmail != "" {
		notifications = append(notifications, models.Notification{
			RecipientEmail: submission.CreatorEmail,
			Subject:        "New submission",
			Message:        fmt.Sprintf("%s submitted work for task %s.", submission.WorkerEmail, submission.TaskID),
		})
	}

	for i := range notifications {
		n := &notifications[i]
		if err := h.store.CreateNotification(r.Context(), n); err != nil {
			log.Printf("submission %s: failed to append notification for %s: %v", submission.ID, n.RecipientEmail, err)
			continue
		}
		h.dispatcher.Enqueue(*n)
	}
}

// ListSubmissions handles GET /submission (unrestricted read).
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.store.ListSubmissions(r.Context())
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list submissions")
		return
	}
	utils.WriteSuccessResponse(w, submissions)
}
