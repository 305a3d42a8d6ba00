package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SignupEnvelope wraps signup responses with the routing the frontend needs.
type SignupEnvelope struct {
	Message         string `json:"message"`
	IsCollegeEmail  bool   `json:"is_college_email"`
	RedirectToOAuth bool   `json:"redirect_to_oauth,omitempty"`
	College         string `json:"college,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFor maps domain sentinels onto HTTP statuses. Anything unrecognized
// is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrAlreadyUsed),
		errors.Is(err, domain.ErrSuperseded):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		msg = "internal server error"
	}
	writeError(w, status, msg)
}
