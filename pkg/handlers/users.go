package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/middleware"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/utils"
)

// UserHandler serves the identity store routes.
type UserHandler struct {
	config *config.Config
	store  database.Store
}

// NewUserHandler creates the user handler.
func NewUserHandler(cfg *config.Config, store database.Store) *UserHandler {
	return &UserHandler{config: cfg, store: store}
}

// ListUsers handles GET /users (admin only).
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list users")
		return
	}
	utils.WriteSuccessResponse(w, users)
}

// GetUser handles GET /users/{email} (public).
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if err == database.ErrNotFound {
			utils.WriteNotFoundResponse(w, "User not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to load user")
		return
	}
	utils.WriteSuccessResponse(w, user)
}

// CheckAdmin handles GET /users/admin/{email}. The caller may only query
// their own email: a mismatched email is 403 even though the caller is
// authenticated.
func (h *UserHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.RequireIdentity(w, r)
	if !ok {
		return
	}

	email := chi.URLParam(r, "email")
	if email != identity.Email {
		utils.WriteForbiddenResponse(w, "Forbidden access")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if err == database.ErrNotFound {
			utils.WriteSuccessResponse(w, models.AdminCheckResponse{Admin: false})
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to load user")
		return
	}

	utils.WriteSuccessResponse(w, models.AdminCheckResponse{Admin: user.Role == models.RoleAdmin})
}

// LoginUpsert handles PUT /users: login-or-create-or-status-request.
func (h *UserHandler) LoginUpsert(w http.ResponseWriter, r *http.Request) {
	var payload models.User
	if err := utils.ParseJSONBody(r, &payload); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}

	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" {
		utils.WriteBadRequestResponse(w, "Email is required")
		return
	}

	outcome, user, err := h.store.UpsertUserOnLogin(r.Context(), &payload)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to upsert user")
		return
	}

	utils.WriteSuccessResponse(w, models.LoginUpsertResponse{Outcome: outcome, User: user})
}

// PromoteAdmin handles PATCH /users/admin/{id} (admin only).
func (h *UserHandler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.PromoteUserToAdmin(r.Context(), id); err != nil {
		if err == database.ErrNotFound {
			utils.WriteNotFoundResponse(w, "User not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to promote user")
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"message": "User promoted to admin"})
}

// PatchUser handles PATCH /users/update/{email} (admin only). The admin is
// trusted: any of the patchable fields may be set without further checks.
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var fields map[string]interface{}
	if err := utils.ParseJSONBody(r, &fields); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if len(fields) == 0 {
		utils.WriteBadRequestResponse(w, "No fields to update")
		return
	}

	if err := h.store.PatchUserByEmail(r.Context(), email, fields); err != nil {
		if err == database.ErrNotFound {
			utils.WriteNotFoundResponse(w, "User not found")
			return
		}
		if errors.Is(err, database.ErrNotPatchable) {
			utils.WriteBadRequestResponse(w, err.Error())
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to update user")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to load updated user")
		return
	}
	utils.WriteSuccessResponse(w, user)
}

// DeleteUser handles DELETE /users/{id} (admin only). Removing an absent
// user is a no-op.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete user")
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"message": "User deleted"})
}
