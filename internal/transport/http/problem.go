package transporthttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"example.com/notifprefs/internal/domain"
)

type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, errs map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Title:  title,
		Status: status,
		Detail: detail,
		Errors: errs,
	})
}

func writeFieldErrors(w http.ResponseWriter, errs []domain.FieldError) {
	prob := map[string][]string{}
	for _, fe := range errs {
		prob[fe.Field] = append(prob[fe.Field], fe.Msg)
	}
	WriteProblem(w, http.StatusBadRequest, "validation failed", "one or more fields are invalid", prob)
}

// writeError maps service errors onto problem responses. Only the detail
// of a *domain.Error reaches the client; anything else is logged and
// reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var de *domain.Error
	switch {
	case errors.As(err, &de) && errors.Is(err, domain.ErrNotFound):
		WriteProblem(w, http.StatusNotFound, "not found", de.Detail, nil)
	case errors.As(err, &de) && errors.Is(err, domain.ErrInvalidReference):
		WriteProblem(w, http.StatusBadRequest, "invalid reference", de.Detail, nil)
	case errors.Is(err, domain.ErrIntegrityViolation):
		logger.Warn("integrity violation", "request_id", RequestIDFrom(r.Context()), "error", err)
		WriteProblem(w, http.StatusBadRequest, "integrity violation", "preference rows violate a storage constraint", nil)
	default:
		logger.Error("request failed", "request_id", RequestIDFrom(r.Context()),
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteProblem(w, http.StatusInternalServerError, "internal error", "an unexpected error occurred", nil)
	}
}
