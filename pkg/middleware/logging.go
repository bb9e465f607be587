package middleware

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"picotask-rush-backend/pkg/config"
)

var logOutput io.Writer = os.Stdout

// Logger logs one line per request: structured in production, colored in
// development. Authenticated requests are attributed to the caller's email.
// The identity holder is seeded here, before authentication runs, and filled
// by the Authenticator further down the chain.
func Logger(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			identity := &Identity{}
			r = r.WithContext(contextWithIdentityHolder(r.Context(), identity))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			userInfo := "anonymous"
			if identity.Email != "" {
				userInfo = identity.Email
			}

			if cfg.IsProduction() {
				logProductionRequest(r, ww, duration, userInfo)
			} else {
				logDevelopmentRequest(r, ww, duration, userInfo)
			}
		})
	}
}

func logProductionRequest(r *http.Request, ww middleware.WrapResponseWriter, duration time.Duration, userInfo string) {
	fmt.Fprintf(logOutput, `{"time":"%s","method":"%s","path":"%s","status":%d,"duration":"%s","user":"%s","ip":"%s"}`+"\n",
		time.Now().Format(time.RFC3339),
		r.Method,
		r.URL.Path,
		ww.Status(),
		duration,
		userInfo,
		getClientIP(r),
	)
}

func logDevelopmentRequest(r *http.Request, ww middleware.WrapResponseWriter, duration time.Duration, userInfo string) {
	statusColor := getStatusColor(ww.Status())

	fmt.Fprintf(logOutput, "%s %s %s %s%d%s %s %s\n",
		time.Now().Format("15:04:05"),
		r.Method,
		r.URL.Path,
		statusColor,
		ww.Status(),
		"\033[0m",
		duration,
		userInfo,
	)
}

// getClientIP resolves the caller's address behind proxies.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func getStatusColor(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "\033[32m"
	case status >= 300 && status < 400:
		return "\033[33m"
	case status >= 400 && status < 500:
		return "\033[31m"
	case status >= 500:
		return "\033[35m"
	default:
		return "\033[0m"
	}
}
