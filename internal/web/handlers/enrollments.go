package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/database"
	"github.com/hrsuite/faceauth/internal/faceauth"
)

// EnrollmentsHandler serves the enrollment lifecycle endpoints.
type EnrollmentsHandler struct {
	enroller *faceauth.Enroller
	recorder *faceauth.Recorder
	logger   *zap.Logger
}

// NewEnrollmentsHandler creates a new enrollments handler.
func NewEnrollmentsHandler(enroller *faceauth.Enroller, recorder *faceauth.Recorder, logger *zap.Logger) *EnrollmentsHandler {
	return &EnrollmentsHandler{enroller: enroller, recorder: recorder, logger: logger}
}

// EnrollRequest is the enrollment request body.
type EnrollRequest struct {
	IdentityID string    `json:"identity_id"`
	Signature  []float64 `json:"signature"`
}

// EnrollResponse summarizes a completed enrollment.
type EnrollResponse struct {
	IdentityID string    `json:"identity_id"`
	Enabled    bool      `json:"enabled"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Updated    bool      `json:"updated"`
}

// StatusResponse is the enrollment status snapshot.
type StatusResponse struct {
	IdentityID string     `json:"identity_id"`
	Enrolled   bool       `json:"enrolled"`
	Enabled    bool       `json:"enabled"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// ToggleRequest is the enable/disable request body.
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// AttemptResponse is one audit record in the attempt log response.
type AttemptResponse struct {
	ID          string    `json:"id"`
	IdentityID  *string   `json:"identity_id"`
	Action      string    `json:"action"`
	Confidence  *float64  `json:"confidence,omitempty"`
	Success     bool      `json:"success"`
	Origin      string    `json:"origin"`
	Client      string    `json:"client"`
	ErrorDetail *string   `json:"error_detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Enroll handles POST /api/v1/enrollments.
func (h *EnrollmentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	existing, err := h.enroller.Status(r.Context(), req.IdentityID)
	if err != nil {
		h.logger.Error("reading enrollment status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to enroll")
		return
	}

	rec, err := h.enroller.Enroll(r.Context(), requestMeta(r), req.IdentityID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, faceauth.ErrInvalidSignature):
			respondError(w, http.StatusBadRequest, "invalid signature")
		case errors.Is(err, faceauth.ErrUnknownIdentity):
			respondError(w, http.StatusNotFound, "unknown identity")
		default:
			h.logger.Error("enrollment failed",
				zap.String("identity_id", sanitizeForLog(req.IdentityID)),
				zap.Error(err),
			)
			respondError(w, http.StatusInternalServerError, "failed to enroll")
		}
		return
	}

	status := http.StatusCreated
	if existing.Enrolled {
		status = http.StatusOK
	}
	respondJSON(w, status, EnrollResponse{
		IdentityID: rec.IdentityID,
		Enabled:    rec.Enabled,
		EnrolledAt: rec.EnrolledAt,
		Updated:    existing.Enrolled,
	})
}

// Status handles GET /api/v1/enrollments/{id}.
func (h *EnrollmentsHandler) Status(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	status, err := h.enroller.Status(r.Context(), identityID)
	if err != nil {
		h.logger.Error("reading enrollment status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read status")
		return
	}

	respondJSON(w, http.StatusOK, StatusResponse{
		IdentityID: identityID,
		Enrolled:   status.Enrolled,
		Enabled:    status.Enabled,
		EnrolledAt: status.EnrolledAt,
		LastUsedAt: status.LastUsedAt,
	})
}

// Toggle handles PUT /api/v1/enrollments/{id}/enabled.
func (h *EnrollmentsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rec, err := h.enroller.SetEnabled(r.Context(), requestMeta(r), identityID, req.Enabled)
	if err != nil {
		if errors.Is(err, faceauth.ErrNotEnrolled) {
			respondError(w, http.StatusNotFound, "not enrolled")
			return
		}
		h.logger.Error("toggle failed",
			zap.String("identity_id", sanitizeForLog(identityID)),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to toggle")
		return
	}

	enrolledAt := rec.EnrolledAt
	respondJSON(w, http.StatusOK, StatusResponse{
		IdentityID: rec.IdentityID,
		Enrolled:   true,
		Enabled:    rec.Enabled,
		EnrolledAt: &enrolledAt,
		LastUsedAt: rec.LastUsedAt,
	})
}

// Delete handles DELETE /api/v1/enrollments/{id}.
func (h *EnrollmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	if err := h.enroller.Remove(r.Context(), requestMeta(r), identityID); err != nil {
		if errors.Is(err, faceauth.ErrNotEnrolled) {
			respondError(w, http.StatusNotFound, "not enrolled")
			return
		}
		h.logger.Error("delete failed",
			zap.String("identity_id", sanitizeForLog(identityID)),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to delete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Attempts handles GET /api/v1/enrollments/{id}/attempts.
func (h *EnrollmentsHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.recorder.Query(r.Context(), identityID, limit)
	if err != nil {
		h.logger.Error("querying attempts", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to query attempts")
		return
	}

	attempts := make([]AttemptResponse, 0, len(records))
	for _, rec := range records {
		attempts = append(attempts, attemptResponse(rec))
	}
	respondJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func attemptResponse(rec database.AuditRecord) AttemptResponse {
	return AttemptResponse{
		ID:          rec.ID.String(),
		IdentityID:  rec.IdentityID,
		Action:      string(rec.Action),
		Confidence:  rec.Confidence,
		Success:     rec.Success,
		Origin:      rec.Origin,
		Client:      rec.Client,
		ErrorDetail: rec.ErrorDetail,
		OccurredAt:  rec.OccurredAt,
	}
}
