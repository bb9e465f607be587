package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/utils"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logOutput = &buf
	t.Cleanup(func() { logOutput = os.Stdout })
	return &buf
}

func TestLoggerAttributesAuthenticatedRequests(t *testing.T) {
	buf := captureLog(t)
	cfg := &config.Config{Environment: "production"}

	svc := utils.NewJWTService("secret")
	token, err := svc.GenerateToken("worker@x.com")
	require.NoError(t, err)

	handler := Logger(cfg)(Authenticator(svc)(okHandler(t)))
	req := httptest.NewRequest(http.MethodGet, "/users/worker@x.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"user":"worker@x.com"`)
}

func TestLoggerMarksUnauthenticatedRequestsAnonymous(t *testing.T) {
	buf := captureLog(t)
	cfg := &config.Config{Environment: "production"}

	handler := Logger(cfg)(okHandler(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"user":"anonymous"`)
}

func TestLoggerSeededHolderDoesNotSatisfyRoleGates(t *testing.T) {
	// The empty holder must not read as an authenticated caller further down
	// the chain.
	handler := Logger(&config.Config{Environment: "production"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := IdentityFromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))
	captureLog(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
