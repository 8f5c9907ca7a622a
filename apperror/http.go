package apperror

import (
	"encoding/json"
	"net/http"

	"github.com/suporte/usuarios-api/logging"
)

// WriteJSON serializes data to JSON and writes it with the given status.
// A nil data writes only the status line and headers.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// The status line is already out; an encode failure here cannot be reported.
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError converts any error into a standardized ErrorResponse.
// Errors that are not *AppError become InternalError. Server-side failures are
// logged with their cause through the request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("unexpected error", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logging.FromRequest(r).WithError(err).Error("request failed")
	}

	WriteJSON(w, status, appErr.ToResponse())
}
