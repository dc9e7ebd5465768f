package http

import (
	"encoding/json"
	"net/http"

	"feedback-hub/internal/infra/validate"
)

type errorResponse struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error"`
	Message string                `json:"message"`
	Code    string                `json:"code"`
	Fields  []validate.FieldError `json:"fields,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {success:false, error, message, code}. The frontend shows
// message to the user.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorResponse{Error: message, Message: message, Code: code})
}

// WriteValidationError writes a 400 listing every rejected field.
func WriteValidationError(w http.ResponseWriter, verr *validate.Error) {
	WriteJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "validation failed",
		Message: verr.Error(),
		Code:    "validation_failed",
		Fields:  verr.Fields,
	})
}
