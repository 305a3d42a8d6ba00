package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/verification"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/validate"
)

// SignupHandler handles account creation.
type SignupHandler struct {
	svc verification.Service
}

func NewSignupHandler(svc verification.Service) *SignupHandler {
	return &SignupHandler{svc: svc}
}

func (h *SignupHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		slog.Error("signup failed", "error", err)
		writeDomainError(w, err)
		return
	}

	env := SignupEnvelope{
		IsCollegeEmail:  res.TrustedDomain,
		RedirectToOAuth: res.RequiresOAuth,
		College:         res.CollegeName,
	}
	switch {
	case res.Resent && res.TrustedDomain:
		env.Message = "Account already pending verification. A new confirmation email was sent."
		writeJSON(w, http.StatusOK, env)
	case res.Resent:
		// No email goes out for non-institutional addresses; do not claim one did.
		env.Message = "Account already pending verification. Verify alumni status via LinkedIn to post reviews."
		writeJSON(w, http.StatusOK, env)
	case res.TrustedDomain:
		env.Message = "Account created. Check your email for a confirmation link."
		writeJSON(w, http.StatusCreated, env)
	default:
		env.Message = "Account created. Verify alumni status via LinkedIn to post reviews."
		writeJSON(w, http.StatusCreated, env)
	}
}
