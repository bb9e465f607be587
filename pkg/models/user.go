package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role values assigned to users. Checks are exact-match: an admin does not
// implicitly satisfy a taskCreator requirement.
const (
	RoleWorker      = "worker"
	RoleTaskCreator = "taskCreator"
	RoleAdmin       = "admin"
)

// Status values for the role-change workflow.
const (
	StatusRequested = "Requested"
	StatusVerified  = "Verified"
)

// User represents a platform account. Email is the unique natural key; the
// record is created on first login and only mutated through admin actions or
// a self-initiated "Requested" status transition.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name,omitempty" db:"name"`
	Role      string    `json:"role,omitempty" db:"role"`
	Status    string    `json:"status,omitempty" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertOutcome reports what a login upsert did to the stored record.
type UpsertOutcome string

const (
	UpsertCreated       UpsertOutcome = "created"
	UpsertUnchanged     UpsertOutcome = "unchanged"
	UpsertStatusUpdated UpsertOutcome = "statusUpdated"
)

// LoginUpsertResponse is the body returned by PUT /users.
type LoginUpsertResponse struct {
	Outcome UpsertOutcome `json:"outcome"`
	User    *User         `json:"user"`
}

// TokenRequest is the body accepted by POST /jwt.
type TokenRequest struct {
	Email string `json:"email"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AdminCheckResponse is the body returned by GET /users/admin/{email}.
type AdminCheckResponse struct {
	Admin bool `json:"admin"`
}

// TokenClaims are the JWT claims embedded in issued tokens.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
