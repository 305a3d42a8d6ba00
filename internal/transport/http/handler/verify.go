package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/verification"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/validate"
)

// VerifyHandler handles email token redemption and resends.
type VerifyHandler struct {
	svc verification.Service
}

func NewVerifyHandler(svc verification.Service) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

// Redeem handles GET /verify?token=. Unknown and malformed tokens both
// answer 400; the endpoint never reveals whether a token ever existed.
func (h *VerifyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	u, err := h.svc.Redeem(r.Context(), token)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string       `json:"message"`
		User    *domain.User `json:"user"`
	}{
		Message: "Email verified. You can now post reviews.",
		User:    u,
	})
}

// Resend handles POST /resend-verification.
func (h *VerifyHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Resend(r.Context(), req.Email); err != nil {
		slog.Warn("resend verification failed", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "confirmation email sent"})
}
