package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"fjacquet/stmt-categorizer/internal/categorizer"
	"fjacquet/stmt-categorizer/internal/hierarchy"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/parsererror"
	"fjacquet/stmt-categorizer/internal/patterns"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Stack   string `json:"stack,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// classify maps an error to its HTTP status and short code.
func classify(err error) (int, string) {
	var (
		ambiguous   *parsererror.FormatDetectionAmbiguousError
		noOps       *parsererror.NoOperationsFoundError
		invalidFmt  *parsererror.InvalidFormatError
		unavailable *parsererror.ClassificationUnavailableError
		invalidOut  *parsererror.InvalidClassificationOutputError
	)
	switch {
	case errors.Is(err, parsererror.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &ambiguous):
		return http.StatusUnprocessableEntity, "ambiguous_format"
	case errors.As(err, &noOps):
		return http.StatusUnprocessableEntity, "no_operations"
	case errors.As(err, &invalidFmt):
		return http.StatusBadRequest, "invalid_format"
	case errors.As(err, &invalidOut):
		return http.StatusInternalServerError, "invalid_classification"
	case errors.As(err, &unavailable):
		return http.StatusInternalServerError, "classification_unavailable"
	case errors.Is(err, patterns.ErrEmptyPattern),
		errors.Is(err, categorizer.ErrPatternNotInDescription),
		errors.Is(err, hierarchy.ErrUnknownCategory),
		errors.Is(err, hierarchy.ErrNoCategoryCode):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, patterns.ErrPatternNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := ErrorResponse{Error: code, Details: err.Error()}
	if s.exposeStack && status >= http.StatusInternalServerError {
		resp.Stack = string(debug.Stack())
	}
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed", logging.Field{Key: logging.FieldStatus, Value: status})
	}
	WriteJSON(w, status, resp)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	s.writeError(w, status, code, err)
}
