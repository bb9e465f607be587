package handlers

import (
	"net/http"
	"strings"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/utils"
)

// AuthHandler issues bearer tokens and serves the health banner.
type AuthHandler struct {
	config     *config.Config
	jwtService *utils.JWTService
	store      database.Store
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(cfg *config.Config, jwtService *utils.JWTService, store database.Store) *AuthHandler {
	return &AuthHandler{config: cfg, jwtService: jwtService, store: store}
}

// IssueToken handles POST /jwt. The claimed identity is not challenged here:
// the token only proves the email claim, role checks happen per request
// against the identity store.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		utils.WriteBadRequestResponse(w, "Email is required")
		return
	}

	token, err := h.jwtService.GenerateToken(email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to issue token")
		return
	}

	utils.WriteSuccessResponse(w, models.TokenResponse{Token: token})
}

// HealthCheck handles GET /. The banner is only served when the store answers
// a ping, so load balancers see a failing dependency as a failing service.
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Service unhealthy")
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"message": "PicoTask Rush server is running"})
}
