// Package alumni runs the LinkedIn-backed alumni verification flow: state
// issuance for the redirect, then the callback pipeline that turns a spent
// authorization code into an alumni-verified account.
package alumni

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/linkedin"
	"github.com/google/uuid"
)

// Reason codes surfaced to the frontend redirect. The set is part of the
// public contract; the dashboard switches on these strings.
const (
	ReasonNoCode             = "no_code"
	ReasonInvalidState       = "invalid_state"
	ReasonTokenFailed        = "token_failed"
	ReasonProfileFailed      = "profile_failed"
	ReasonVerificationFailed = "verification_failed"
	ReasonUserNotFound       = "user_not_found"
	ReasonUpdateFailed       = "update_failed"
)

// stateTTL bounds how long a started flow stays redeemable.
const stateTTL = 10 * time.Minute

// FlowError tags a callback failure with the reason code the handler
// forwards to the frontend.
type FlowError struct {
	Code string
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *FlowError) Unwrap() error { return e.Err }

// ReasonOf extracts the reason code from a callback error. Unknown errors
// report verification_failed so the frontend always gets a known code.
func ReasonOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ReasonVerificationFailed
}

func flowErr(code string, err error) *FlowError {
	return &FlowError{Code: code, Err: err}
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	CommitAlumni(ctx context.Context, userID, subjectID string, verifiedAt time.Time, collegeID *string) error
}

type StateStore interface {
	Put(ctx context.Context, s *domain.OAuthState) error
	Consume(ctx context.Context, state string) (*domain.OAuthState, error)
}

type CollegeStore interface {
	Scan(ctx context.Context) ([]domain.College, error)
}

// Provider is the OAuth side of the flow, satisfied by linkedin.Client.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*linkedin.Profile, error)
}

// Result is a successful callback outcome.
type Result struct {
	User *domain.User
	// CollegeName is set when a claimed school matched the registry.
	CollegeName string
	// NeedsCollegeSelection is true when the account was verified but no
	// school could be linked; the frontend prompts for a manual pick.
	NeedsCollegeSelection bool
}

type Service interface {
	// Start mints a single-use anti-forgery state and returns the provider
	// authorization URL. userID may be empty for flows started before login;
	// the callback then resolves the account by profile email.
	Start(ctx context.Context, userID string) (string, error)
	// Callback runs the full verification pipeline for the provider
	// redirect. Failures carry a *FlowError reason code.
	Callback(ctx context.Context, code, state string) (*Result, error)
}

type Deps struct {
	UserRepo    UserStore
	StateRepo   StateStore
	CollegeRepo CollegeStore
	Provider    Provider
}

type service struct {
	users    UserStore
	states   StateStore
	colleges CollegeStore
	provider Provider
}

func NewService(deps Deps) Service {
	return &service{
		users:    deps.UserRepo,
		states:   deps.StateRepo,
		colleges: deps.CollegeRepo,
		provider: deps.Provider,
	}
}

func (s *service) Start(ctx context.Context, userID string) (string, error) {
	state := uuid.NewString()
	if err := s.states.Put(ctx, &domain.OAuthState{
		State:     state,
		UserID:    userID,
		ExpiresAt: time.Now().Add(stateTTL).Unix(),
	}); err != nil {
		return "", fmt.Errorf("persist oauth state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

func (s *service) Callback(ctx context.Context, code, state string) (*Result, error) {
	if code == "" {
		return nil, flowErr(ReasonNoCode, nil)
	}

	// The state record is consumed before anything else so a replayed
	// callback dies here regardless of how far the first attempt got.
	st, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, flowErr(ReasonInvalidState, err)
	}
	if time.Now().Unix() > st.ExpiresAt {
		return nil, flowErr(ReasonInvalidState, errors.New("state expired"))
	}

	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, flowErr(ReasonTokenFailed, err)
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, flowErr(ReasonProfileFailed, err)
	}
	if profile.Subject == "" || profile.FirstName == "" || profile.LastName == "" || profile.Email == "" {
		return nil, flowErr(ReasonVerificationFailed, errors.New("profile missing required fields"))
	}

	u, err := s.resolveUser(ctx, st, profile)
	if err != nil {
		return nil, flowErr(ReasonUserNotFound, err)
	}

	collegeID, collegeName := s.matchCollege(ctx, profile)

	if err := s.users.CommitAlumni(ctx, u.UserID, profile.Subject, time.Now().UTC(), collegeID); err != nil {
		return nil, flowErr(ReasonUpdateFailed, err)
	}
	u.VerificationState = domain.VerificationAlumni
	u.OAuthSubjectID = profile.Subject
	if collegeID != nil {
		u.CollegeID = collegeID
	}

	slog.Info("alumni verification committed",
		"user_id", u.UserID,
		"college_linked", collegeID != nil)

	return &Result{
		User:                  u,
		CollegeName:           collegeName,
		NeedsCollegeSelection: collegeID == nil,
	}, nil
}

// resolveUser prefers the account the flow was started for and falls back to
// the profile email for flows started before login.
func (s *service) resolveUser(ctx context.Context, st *domain.OAuthState, p *linkedin.Profile) (*domain.User, error) {
	if st.UserID != "" {
		return s.users.Get(ctx, st.UserID)
	}
	return s.users.GetByEmail(ctx, strings.ToLower(p.Email))
}

// matchCollege maps the profile's claimed schools onto the registry. Colleges
// are walked in name order so ties resolve the same way every run; a match is
// a case-insensitive substring in either direction, so "Harvard" claimed on
// the profile still lands on "Harvard University". Returns nils when the
// profile claims no school or nothing matches.
func (s *service) matchCollege(ctx context.Context, p *linkedin.Profile) (*string, string) {
	if len(p.Education) == 0 {
		return nil, ""
	}
	colleges, err := s.colleges.Scan(ctx)
	if err != nil {
		slog.Warn("college registry scan failed, verifying without link", "error", err)
		return nil, ""
	}
	sort.Slice(colleges, func(i, j int) bool { return colleges[i].Name < colleges[j].Name })

	for _, c := range colleges {
		registered := strings.ToLower(c.Name)
		for _, e := range p.Education {
			claimed := strings.ToLower(strings.TrimSpace(e.SchoolName))
			if claimed == "" {
				continue
			}
			if strings.Contains(registered, claimed) || strings.Contains(claimed, registered) {
				id := c.CollegeID
				return &id, c.Name
			}
		}
	}
	return nil, ""
}
