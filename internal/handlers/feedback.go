package handlers

import (
	"net/http"

	"github.com/AnshRaj112/namewall-backend/internal/models"
)

type submitFeedbackRequest struct {
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Message string        `json:"message"`
	Rating  models.Rating `json:"rating"`
}

// SubmitFeedback handles POST /api/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req submitFeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stored, err := h.feedback.Submit(r.Context(), models.FeedbackEntry{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
		Rating:  req.Rating,
	})
	if err != nil {
		h.storageFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// ListFeedback handles GET /api/feedback, newest first.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.List(r.Context())
	if err != nil {
		h.storageFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
