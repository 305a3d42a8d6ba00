package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/alumni"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/transport/http/middleware"
)

// OAuthHandler drives the browser-facing half of alumni verification. Both
// endpoints answer with redirects: Start to the provider, Callback back to
// the frontend dashboard carrying the outcome in query parameters.
type OAuthHandler struct {
	svc          alumni.Service
	frontendBase string
}

func NewOAuthHandler(svc alumni.Service, frontendBase string) *OAuthHandler {
	return &OAuthHandler{svc: svc, frontendBase: frontendBase}
}

// Start handles GET /oauth/start. Claims are optional: a logged-in caller
// binds the flow to their account, anonymous flows resolve by profile email
// at the callback.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	var userID string
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		userID = claims.UserID
	}
	authURL, err := h.svc.Start(r.Context(), userID)
	if err != nil {
		slog.Error("oauth start failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not start verification")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles the provider redirect. The outcome always goes back to
// the dashboard; errors ride in linkedin_error, success in linkedin_success.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// The provider reports its own failures (denied consent, bad scope)
	// in the error parameter; forward that verbatim before anything else.
	if provErr := q.Get("error"); provErr != "" {
		slog.Warn("provider returned oauth error", "error", provErr)
		http.Redirect(w, r, h.frontendBase+"/dashboard?linkedin_error="+url.QueryEscape(provErr), http.StatusFound)
		return
	}

	res, err := h.svc.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		reason := alumni.ReasonOf(err)
		slog.Warn("alumni verification failed", "reason", reason, "error", err)
		http.Redirect(w, r, h.frontendBase+"/dashboard?linkedin_error="+reason, http.StatusFound)
		return
	}

	target := h.frontendBase + "/dashboard?linkedin_success=true"
	if res.NeedsCollegeSelection {
		target += "&needs_college_selection=true"
	}
	http.Redirect(w, r, target, http.StatusFound)
}
