// Package verification orchestrates the student trust tier: domain
// classification at signup, the single-use email token lifecycle, and the
// account transitions both feed.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/collegedomains"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/id"
	pkgtoken "github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/token"
)

const (
	tokenLength = 32
	tokenTTL    = 24 * time.Hour
)

// UserStore is the account persistence the orchestrator requires.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// TokenStore persists single-use verification tokens.
type TokenStore interface {
	Put(ctx context.Context, t *domain.VerificationToken) error
	Get(ctx context.Context, token string) (*domain.VerificationToken, error)
	Consume(ctx context.Context, token string) error
	SupersedeActive(ctx context.Context, userID, purpose string) error
}

// CollegeStore resolves canonical institution records.
type CollegeStore interface {
	GetByName(ctx context.Context, name string) (*domain.College, error)
}

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SignupResult reports what the signup decided for the new account.
type SignupResult struct {
	User          *domain.User `json:"user"`
	CollegeName   string       `json:"college_name,omitempty"`
	TrustedDomain bool         `json:"is_college_email"`
	// RequiresOAuth is set for non-institutional emails: the account exists
	// but can only reach a trust tier through alumni verification.
	RequiresOAuth bool `json:"redirect_to_oauth,omitempty"`
	// Resent is set when signup hit an existing unverified account and
	// reissued its confirmation token instead of creating a duplicate.
	Resent bool `json:"-"`
}

// Status is the account's current trust standing.
type Status struct {
	EmailConfirmed    bool   `json:"email_verified"`
	VerificationState string `json:"verification_type"`
	CanPostReviews    bool   `json:"can_post_reviews"`
}

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*SignupResult, error)
	Issue(ctx context.Context, userID, purpose string) (string, error)
	Redeem(ctx context.Context, token string) (*domain.User, error)
	Resend(ctx context.Context, email string) error
	Status(ctx context.Context, userID string) (*Status, error)
}

// Deps holds the service's collaborators.
type Deps struct {
	UserRepo    UserStore
	TokenRepo   TokenStore
	CollegeRepo CollegeStore
	Mailer      Mailer
	// PublicBaseURL prefixes the confirmation link embedded in emails.
	PublicBaseURL string
}

type service struct {
	users    UserStore
	tokens   TokenStore
	colleges CollegeStore
	mailer   Mailer
	baseURL  string
}

func NewService(deps Deps) Service {
	return &service{
		users:    deps.UserRepo,
		tokens:   deps.TokenRepo,
		colleges: deps.CollegeRepo,
		mailer:   deps.Mailer,
		baseURL:  strings.TrimRight(deps.PublicBaseURL, "/"),
	}
}

// Signup creates the account unverified and routes it toward the trust tier
// its email domain allows: institutional domains get a confirmation token by
// email, everything else is pointed at alumni verification. A signup against
// an existing unverified account reissues the token instead of failing.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	trusted, collegeName := collegedomains.Classify(email)

	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		if existing.EmailConfirmed || existing.VerificationState == domain.VerificationAlumni {
			return nil, fmt.Errorf("an account with this email already exists: %w", domain.ErrConflict)
		}
		// Unverified duplicate: treat as a resend, not an error.
		if trusted {
			if err := s.issueAndSend(ctx, existing); err != nil {
				return nil, err
			}
		}
		return &SignupResult{
			User:          existing,
			CollegeName:   collegeName,
			TrustedDomain: trusted,
			RequiresOAuth: !trusted,
			Resent:        true,
		}, nil
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:            id.New(),
		Email:             email,
		Name:              req.Name,
		VerificationState: domain.VerificationNone,
		EmailConfirmed:    false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if trusted {
		if college, err := s.colleges.GetByName(ctx, collegeName); err == nil {
			u.CollegeID = &college.CollegeID
		} else {
			slog.Info("college not in registry, creating account without link",
				"college", collegeName)
		}
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}

	if trusted {
		if err := s.issueAndSend(ctx, u); err != nil {
			return nil, err
		}
	}
	slog.Info("account created", "user_id", u.UserID, "trusted_domain", trusted)
	return &SignupResult{
		User:          u,
		CollegeName:   collegeName,
		TrustedDomain: trusted,
		RequiresOAuth: !trusted,
	}, nil
}

// Issue generates a fresh token for (userID, purpose), superseding all prior
// unconsumed tokens for the pair so at most one token is redeemable.
func (s *service) Issue(ctx context.Context, userID, purpose string) (string, error) {
	if err := s.tokens.SupersedeActive(ctx, userID, purpose); err != nil {
		return "", fmt.Errorf("supersede prior tokens: %w", err)
	}
	tok, err := pkgtoken.New(tokenLength)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	t := &domain.VerificationToken{
		Token:     tok,
		UserID:    userID,
		Purpose:   purpose,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}
	if err := s.tokens.Put(ctx, t); err != nil {
		return "", err
	}
	return tok, nil
}

// Redeem consumes the token and promotes the account to email-confirmed
// student. Exactly one of any concurrent redemptions of the same token
// succeeds; the token store's conditional write decides the winner.
func (s *service) Redeem(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("verification token is required: %w", domain.ErrInvalidInput)
	}
	t, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid verification token: %w", domain.ErrNotFound)
	}
	switch {
	case t.Consumed:
		return nil, fmt.Errorf("token already used: %w", domain.ErrAlreadyUsed)
	case t.Superseded:
		return nil, fmt.Errorf("token superseded by a newer one: %w", domain.ErrSuperseded)
	case time.Now().Unix() > t.ExpiresAt:
		return nil, fmt.Errorf("token expired: %w", domain.ErrExpired)
	}

	if err := s.tokens.Consume(ctx, token); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("token owner not found: %w", domain.ErrNotFound)
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"email_confirmed":    true,
		"verification_state": domain.VerificationStudent,
	}); err != nil {
		return nil, err
	}
	u.EmailConfirmed = true
	u.VerificationState = domain.VerificationStudent
	slog.Info("email verified", "user_id", u.UserID)
	return u, nil
}

// Resend issues a fresh confirmation token, superseding prior ones.
func (s *service) Resend(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.EmailConfirmed {
		return fmt.Errorf("email is already verified: %w", domain.ErrConflict)
	}
	return s.issueAndSend(ctx, u)
}

// Status reports the account's trust standing for the dashboard.
func (s *service) Status(ctx context.Context, userID string) (*Status, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return &Status{
		EmailConfirmed:    u.EmailConfirmed,
		VerificationState: u.VerificationState,
		CanPostReviews:    u.CanPostReviews(),
	}, nil
}

func (s *service) issueAndSend(ctx context.Context, u *domain.User) error {
	tok, err := s.Issue(ctx, u.UserID, domain.PurposeEmailConfirmation)
	if err != nil {
		return err
	}
	link := s.baseURL + "/verify-email?token=" + tok
	body := fmt.Sprintf("Hi %s,\n\nConfirm your email to start posting reviews:\n%s\n\nThe link expires in 24 hours.", u.Name, link)
	if err := s.mailer.SendEmail(u.Email, "Confirm your email", body); err != nil {
		slog.Error("failed to send verification email", "user_id", u.UserID, "err", err)
		return fmt.Errorf("send verification email: %w", domain.ErrUpstreamUnavailable)
	}
	return nil
}
