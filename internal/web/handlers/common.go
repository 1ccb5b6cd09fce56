package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hrsuite/faceauth/internal/faceauth"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// requestMeta extracts the caller metadata recorded in the audit trail.
// RemoteAddr already reflects the real client when the RealIP
// middleware is in the stack.
func requestMeta(r *http.Request) faceauth.RequestMeta {
	return faceauth.RequestMeta{
		Origin: r.RemoteAddr,
		Client: r.UserAgent(),
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
