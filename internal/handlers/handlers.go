// Package handlers exposes the name registry and feedback sink over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/models"
	"github.com/AnshRaj112/namewall-backend/internal/realtime"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 100 << 10

// NameService is implemented by services.NameRegistry.
type NameService interface {
	List(ctx context.Context) ([]models.NameEntry, error)
	Create(ctx context.Context, name string) (models.NameEntry, bool, error)
}

// FeedbackService is implemented by services.FeedbackSink.
type FeedbackService interface {
	Submit(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error)
	List(ctx context.Context) ([]models.FeedbackEntry, error)
}

type Handler struct {
	names    NameService
	feedback FeedbackService
	hub      *realtime.Hub
	log      *slog.Logger
}

func New(names NameService, feedback FeedbackService, hub *realtime.Hub, log *slog.Logger) *Handler {
	return &Handler{
		names:    names,
		feedback: feedback,
		hub:      hub,
		log:      logger.Module(log, "http"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// storageFailed answers 500 with the error text and logs it with the request id.
func (h *Handler) storageFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed",
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
// It writes the error response itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return false
}
