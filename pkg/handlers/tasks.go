package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/middleware"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/utils"
)

// TaskHandler serves the task catalog routes.
type TaskHandler struct {
	config *config.Config
	store  database.Store
}

// NewTaskHandler creates the task handler.
func NewTaskHandler(cfg *config.Config, store database.Store) *TaskHandler {
	return &TaskHandler{config: cfg, store: store}
}

// ListTasks handles GET /tasks. The catalog is a public read.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.ListTasks(r.Context())
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list tasks")
		return
	}
	utils.WriteSuccessResponse(w, tasks)
}

// CreateTask handles POST /tasks (authenticated). The creator is taken from
// the verified identity, not from the body.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.RequireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Title         string `json:"title"`
		Quantity      int    `json:"quantity"`
		PayableAmount int64  `json:"payable_amount"`
		Details       string `json:"details"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.WriteBadRequestResponse(w, "Title is required")
		return
	}
	if req.Quantity < 0 {
		utils.WriteBadRequestResponse(w, "Quantity must be non-negative")
		return
	}

	task := &models.Task{
		CreatorEmail:  identity.Email,
		Title:         req.Title,
		Quantity:      req.Quantity,
		PayableAmount: req.PayableAmount,
		Details:       req.Details,
	}
	if err := h.store.CreateTask(r.Context(), task); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create task")
		return
	}
	utils.WriteCreatedResponse(w, task)
}

// GetTask handles GET /tasks/{id} (public).
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		if err == database.ErrNotFound {
			utils.WriteNotFoundResponse(w, "Task not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to load task")
		return
	}
	utils.WriteSuccessResponse(w, task)
}

// UpdateTask handles PUT /tasks/{id} (taskCreator only). Upsert semantics:
// an unknown id creates a record with exactly the three updatable fields, the
// id coming from the URL. On an existing task only title, quantity and
// details change; creator_email is untouched.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update models.TaskUpdate
	if err := utils.ParseJSONBody(r, &update); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if update.Quantity < 0 {
		utils.WriteBadRequestResponse(w, "Quantity must be non-negative")
		return
	}

	task, err := h.store.UpsertTaskFields(r.Context(), id, update)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update task")
		return
	}
	utils.WriteSuccessResponse(w, task)
}

// DeleteTask handles DELETE /tasks/{id} (admin only). Hard delete.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		if err == database.ErrNotFound {
			utils.WriteNotFoundResponse(w, "Task not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to delete task")
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"message": "Task deleted"})
}
