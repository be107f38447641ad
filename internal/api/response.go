package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oit-labs/lostfound/internal/workflow"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// workflowError maps the workflow error taxonomy to HTTP responses:
// field validation → 400 with the full field map, permission → 403,
// not found → 404, transient conflict → 409.
func workflowError(w http.ResponseWriter, err error) {
	var validation workflow.ValidationError
	var permission *workflow.PermissionError
	var notFound *workflow.NotFoundError
	var conflict *workflow.ConflictError

	switch {
	case errors.As(err, &validation):
		jsonResponse(w, http.StatusBadRequest, map[string]any{"errors": validation})
	case errors.As(err, &permission):
		jsonError(w, http.StatusForbidden, permission.Reason)
	case errors.As(err, &notFound):
		jsonError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		jsonError(w, http.StatusConflict, "temporary conflict, please retry")
	default:
		slog.Error("internal error", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
