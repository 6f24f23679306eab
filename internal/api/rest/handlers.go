package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/service"
)

const maxQuestionBytes = 4 << 10

// Handler contains dependencies for HTTP handlers
type Handler struct {
	pipeline *service.Pipeline
	checkers map[string]HealthChecker
	log      *logrus.Logger
}

// NewHandler creates a new handler
func NewHandler(pipeline *service.Pipeline, checkers map[string]HealthChecker, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{pipeline: pipeline, checkers: checkers, log: log}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask answers one free-text question.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	body := http.MaxBytesReader(w, r.Body, maxQuestionBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "Missing question field", nil)
		return
	}

	answer := h.pipeline.Ask(r.Context(), req.Question)
	respondJSON(w, http.StatusOK, answer)
}

// HealthCheck handles health check requests. Optional dependencies report
// their own status; any of them being down degrades the status without
// failing the endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	deps := map[string]string{}
	for name, checker := range h.checkers {
		if checker == nil {
			deps[name] = "disabled"
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "up"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       status,
		"service":      "courtside",
		"dependencies": deps,
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
