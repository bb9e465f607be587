package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/utils"
)

// Recovery turns handler panics into a 500 response. Development responses
// carry the panic value; production responses stay opaque.
func Recovery(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()
					fmt.Printf("PANIC: %v\n%s\n", err, stack)

					if cfg.IsDevelopment() {
						utils.WriteInternalServerErrorResponse(w, fmt.Sprintf("Internal server error: %v", err))
					} else {
						utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
