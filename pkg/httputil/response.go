package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/moniflow/moniflow/pkg/apperror"
)

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a JSON error response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Detail writes a JSON error response in the {"detail": ...} shape used
// by the gateway and the alert/collector APIs.
func Detail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"detail": message})
}

// AppError writes a structured application error, falling back to a
// plain 500 for errors that carry no status of their own.
func AppError(w http.ResponseWriter, err error) {
	if appErr, ok := apperror.GetAppError(err); ok {
		JSON(w, appErr.HTTPStatus, appErr)
		return
	}
	Error(w, http.StatusInternalServerError, "internal server error")
}
