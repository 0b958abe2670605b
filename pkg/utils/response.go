package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

// ErrInvalidBody is returned by DecodeJSON for unreadable request bodies.
var ErrInvalidBody = errors.New("invalid request body")

// RespondJSON writes payload as a JSON response.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps upstream failures to a 500 with a prefix naming
// the failing dependency.
func RespondServiceError(w http.ResponseWriter, err error) {
	RespondError(w, http.StatusInternalServerError, ServiceErrorMessage(err))
}

// ServiceError is implemented by errors that name the dependency they came
// from, e.g. "AI service" or "Database".
type ServiceError interface {
	error
	ServiceKind() string
}

// ServiceErrorMessage renders err the way RespondServiceError reports it.
func ServiceErrorMessage(err error) string {
	var serviceErr ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.ServiceKind() + " error: " + serviceErr.Error()
	}

	log.Printf("unexpected service error: %v", err)
	return "internal server error"
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return ErrInvalidBody
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
