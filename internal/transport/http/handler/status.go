package handler

import (
	"net/http"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/verification"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/transport/http/middleware"
)

// StatusHandler reports the caller's trust standing.
type StatusHandler struct {
	svc verification.Service
}

func NewStatusHandler(svc verification.Service) *StatusHandler {
	return &StatusHandler{svc: svc}
}

func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	st, err := h.svc.Status(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
