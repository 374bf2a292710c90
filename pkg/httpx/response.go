// Package httpx holds the HTTP plumbing shared by every delivery package: the response
// envelope, error mapping, request helpers and middleware.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/logger"
)

// Response is the envelope for every JSON response
type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Kind    apperr.Kind            `json:"kind,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondOK sends data with a 200 status
func RespondOK(w http.ResponseWriter, data interface{}) {
	RespondJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// RespondCreated sends data with a 201 status
func RespondCreated(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// RespondMessage sends a plain error message with the given status
func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Response{Success: false, Error: message})
}

// RespondError maps err to a status and writes its kind and details.
// Errors without a kind are logged and reported as internal.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		RespondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal error",
			Kind:    apperr.KindInternal,
		})
		return
	}

	RespondJSON(w, apperr.HTTPStatus(appErr.Kind), Response{
		Success: false,
		Error:   appErr.Message,
		Kind:    appErr.Kind,
		Details: appErr.Details,
	})
}

// Decode reads a JSON body into v
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// PathUint parses a numeric path variable
func PathUint(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid %s", name).With(name, raw)
	}
	return uint(id), nil
}

// QueryUint parses an optional numeric query parameter; absent means zero
func QueryUint(r *http.Request, name string) (uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid %s", name).With(name, raw)
	}
	return uint(v), nil
}

// QueryInt parses an optional integer query parameter, ignoring malformed values
func QueryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}
