package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/faceauth"
)

// VerifyHandler serves probe verification.
type VerifyHandler struct {
	matcher *faceauth.Matcher
	logger  *zap.Logger
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(matcher *faceauth.Matcher, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{matcher: matcher, logger: logger}
}

// VerifyRequest is the probe request body.
type VerifyRequest struct {
	Signature []float64 `json:"signature"`
}

// VerifyResponse is the verification outcome. Confidence is present
// whenever a distance was computed, including on rejection.
type VerifyResponse struct {
	Recognized bool     `json:"recognized"`
	IdentityID string   `json:"identity_id,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// Verify handles POST /api/v1/verify.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	match, err := h.matcher.Verify(r.Context(), requestMeta(r), req.Signature)
	if err != nil {
		var notRecognized *faceauth.NotRecognizedError
		switch {
		case errors.Is(err, faceauth.ErrInvalidProbe):
			respondError(w, http.StatusBadRequest, "invalid probe")
		case errors.Is(err, faceauth.ErrNoCandidates):
			respondJSON(w, http.StatusUnauthorized, VerifyResponse{
				Recognized: false,
				Reason:     "no_candidates",
			})
		case errors.As(err, &notRecognized):
			respondJSON(w, http.StatusUnauthorized, VerifyResponse{
				Recognized: false,
				Confidence: notRecognized.Confidence,
				Reason:     "not_recognized",
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Caller abandoned the request; nothing useful to write.
			respondError(w, http.StatusServiceUnavailable, "verification aborted")
		default:
			h.logger.Error("verification failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to verify")
		}
		return
	}

	confidence := match.Confidence
	respondJSON(w, http.StatusOK, VerifyResponse{
		Recognized: true,
		IdentityID: match.IdentityID,
		Confidence: &confidence,
	})
}
