package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/matching"
	"github.com/sells-group/ideaflow/internal/resilience"
	"github.com/sells-group/ideaflow/internal/store"
)

type errorBody struct {
	Error     string   `json:"error"`
	Retriable bool     `json:"retriable"`
	Missing   []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var verr *extract.ValidationError
	var terr *lifecycle.InvalidTransitionError
	switch {
	case errors.As(err, &verr):
		body.Missing = verr.Missing
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, lifecycle.ErrInvalidAssessment):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, body
	case errors.As(err, &terr),
		errors.Is(err, matching.ErrMatchNotPending),
		errors.Is(err, matching.ErrNotAnalyzed),
		errors.Is(err, clarify.ErrNoActiveQuestion),
		errors.Is(err, clarify.ErrChainComplete),
		errors.Is(err, lifecycle.ErrConflict):
		return http.StatusConflict, body
	case errors.Is(err, extract.ErrCouldNotExtract),
		lifecycle.IsRecoverable(err),
		resilience.IsTransient(err):
		body.Retriable = true
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}
