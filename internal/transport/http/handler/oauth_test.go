package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/application/alumni"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAlumniSvc struct{ mock.Mock }

func (m *mockAlumniSvc) Start(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockAlumniSvc) Callback(ctx context.Context, code, state string) (*alumni.Result, error) {
	args := m.Called(ctx, code, state)
	if r, _ := args.Get(0).(*alumni.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

const frontend = "https://ratemycollege.example"

func TestOAuthStart_RedirectsToProvider(t *testing.T) {
	svc := &mockAlumniSvc{}
	svc.On("Start", mock.Anything, "").
		Return("https://www.linkedin.com/oauth/v2/authorization?state=abc", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/start", nil)
	rec := httptest.NewRecorder()
	NewOAuthHandler(svc, frontend).Start(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "linkedin.com/oauth")
}

func TestOAuthStart_ProviderDown(t *testing.T) {
	svc := &mockAlumniSvc{}
	svc.On("Start", mock.Anything, "").
		Return("", fmt.Errorf("persist oauth state: %w", domain.ErrUpstreamUnavailable))

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/start", nil)
	rec := httptest.NewRecorder()
	NewOAuthHandler(svc, frontend).Start(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestOAuthCallback_SuccessRedirect(t *testing.T) {
	svc := &mockAlumniSvc{}
	svc.On("Callback", mock.Anything, "code1", "state1").Return(&alumni.Result{
		User: &domain.User{UserID: "u1", VerificationState: domain.VerificationAlumni},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/callback?code=code1&state=state1", nil)
	rec := httptest.NewRecorder()
	NewOAuthHandler(svc, frontend).Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, frontend+"/dashboard?linkedin_success=true", rec.Header().Get("Location"))
}

func TestOAuthCallback_SuccessNeedsCollegeSelection(t *testing.T) {
	svc := &mockAlumniSvc{}
	svc.On("Callback", mock.Anything, "code1", "state1").Return(&alumni.Result{
		User:                  &domain.User{UserID: "u1"},
		NeedsCollegeSelection: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/callback?code=code1&state=state1", nil)
	rec := httptest.NewRecorder()
	NewOAuthHandler(svc, frontend).Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		frontend+"/dashboard?linkedin_success=true&needs_college_selection=true",
		rec.Header().Get("Location"))
}

func TestOAuthCallback_ProviderErrorForwardedVerbatim(t *testing.T) {
	// A user denying consent comes back as ?error=user_cancelled with no
	// code; the provider's own reason wins over no_code.
	svc := &mockAlumniSvc{}

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/callback?error=user_cancelled", nil)
	rec := httptest.NewRecorder()
	NewOAuthHandler(svc, frontend).Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		frontend+"/dashboard?linkedin_error=user_cancelled",
		rec.Header().Get("Location"))
	svc.AssertNotCalled(t, "Callback", mock.Anything, mock.Anything, mock.Anything)
}

func TestOAuthCallback_FailureReasonsRideTheRedirect(t *testing.T) {
	reasons := []string{
		alumni.ReasonNoCode,
		alumni.ReasonInvalidState,
		alumni.ReasonTokenFailed,
		alumni.ReasonProfileFailed,
		alumni.ReasonVerificationFailed,
		alumni.ReasonUserNotFound,
		alumni.ReasonUpdateFailed,
	}
	for _, reason := range reasons {
		t.Run(reason, func(t *testing.T) {
			svc := &mockAlumniSvc{}
			svc.On("Callback", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, &alumni.FlowError{Code: reason})

			req := httptest.NewRequest(http.MethodGet, "/v1/oauth/callback?code=x&state=y", nil)
			rec := httptest.NewRecorder()
			NewOAuthHandler(svc, frontend).Callback(rec, req)

			require.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t,
				frontend+"/dashboard?linkedin_error="+reason,
				rec.Header().Get("Location"))
		})
	}
}
