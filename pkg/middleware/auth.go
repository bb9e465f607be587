package middleware

import (
	"context"
	"net/http"
	"strings"

	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/utils"
)

// ContextKey is the type of keys stored in the request context.
type ContextKey string

const identityContextKey ContextKey = "identity"

// Identity is the verified bearer identity of the caller. The role is not
// part of the token: it is loaded from the identity store per role check so
// token holders cannot carry stale capabilities.
type Identity struct {
	Email string
}

// Authenticator verifies the bearer token and puts the caller's identity into
// the request context. Requests without a valid token are rejected with 401
// before any handler or persistence call runs.
func Authenticator(jwtService *utils.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.WriteUnauthorizedResponse(w, "Missing authorization header")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				utils.WriteUnauthorizedResponse(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				utils.WriteUnauthorizedResponse(w, "Invalid token")
				return
			}

			// The request logger seeds an empty holder ahead of this
			// middleware. Filling it in place lets the completed request be
			// attributed to the caller even though the logger only sees the
			// outer context.
			if holder, ok := r.Context().Value(identityContextKey).(*Identity); ok {
				holder.Email = claims.Email
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextWithIdentityHolder(r.Context(), &Identity{Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on an exact role match. The user record is loaded
// from the store by the claimed email; a missing record or any other role is
// 403. Admin does not satisfy a taskCreator requirement, nor the reverse.
func RequireRole(store database.Store, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				utils.WriteUnauthorizedResponse(w, "Authentication required")
				return
			}

			user, err := store.GetUserByEmail(r.Context(), identity.Email)
			if err != nil {
				if err == database.ErrNotFound {
					utils.WriteForbiddenResponse(w, "Forbidden access")
					return
				}
				utils.WriteInternalServerErrorResponse(w, "Failed to load user record")
				return
			}

			if user.Role != role {
				utils.WriteForbiddenResponse(w, "Forbidden access")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates on the admin role.
func RequireAdmin(store database.Store) func(http.Handler) http.Handler {
	return RequireRole(store, models.RoleAdmin)
}

// RequireTaskCreator gates on the taskCreator role.
func RequireTaskCreator(store database.Store) func(http.Handler) http.Handler {
	return RequireRole(store, models.RoleTaskCreator)
}

func contextWithIdentityHolder(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the verified identity, if any. An empty holder
// seeded by the logger but never filled does not count as an identity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity.Email == "" {
		return nil, false
	}
	return identity, true
}

// RequireIdentity returns the verified identity or writes a 401. It backs
// handlers on routes where the Authenticator is wired but the identity is
// still needed in the handler body.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (*Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return nil, false
	}
	return identity, true
}
