package verification

import (
	"context"
	"testing"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) Put(ctx context.Context, t *domain.VerificationToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTokenStore) Get(ctx context.Context, token string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, token)
	if t, _ := args.Get(0).(*domain.VerificationToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) Consume(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
func (m *mockTokenStore) SupersedeActive(ctx context.Context, userID, purpose string) error {
	return m.Called(ctx, userID, purpose).Error(0)
}

type mockCollegeStore struct{ mock.Mock }

func (m *mockCollegeStore) GetByName(ctx context.Context, name string) (*domain.College, error) {
	args := m.Called(ctx, name)
	if c, _ := args.Get(0).(*domain.College); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// --- builder ---

func newService(us *mockUserStore, ts *mockTokenStore, cs *mockCollegeStore, ml *mockMailer) Service {
	return NewService(Deps{
		UserRepo:      us,
		TokenRepo:     ts,
		CollegeRepo:   cs,
		Mailer:        ml,
		PublicBaseURL: "https://ratemycollege.example",
	})
}

// --- Issue / Redeem ---

func TestIssue_SupersedesPriorTokens(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	ts.On("SupersedeActive", mock.Anything, "u1", domain.PurposeEmailConfirmation).Return(nil)
	ts.On("Put", mock.Anything, mock.MatchedBy(func(tok *domain.VerificationToken) bool {
		return tok.UserID == "u1" &&
			len(tok.Token) == 32 &&
			!tok.Consumed && !tok.Superseded &&
			tok.ExpiresAt-tok.IssuedAt == int64(24*time.Hour/time.Second)
	})).Return(nil)

	svc := newService(us, ts, cs, ml)
	tok, err := svc.Issue(context.Background(), "u1", domain.PurposeEmailConfirmation)
	require.NoError(t, err)
	assert.Len(t, tok, 32)
	ts.AssertExpectations(t)
}

func TestRedeem_Success_PromotesStudent(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	now := time.Now().Unix()
	ts.On("Get", mock.Anything, "tok").Return(&domain.VerificationToken{
		Token: "tok", UserID: "u1", Purpose: domain.PurposeEmailConfirmation,
		IssuedAt: now, ExpiresAt: now + 3600,
	}, nil)
	ts.On("Consume", mock.Anything, "tok").Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@harvard.edu"}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		"email_confirmed":    true,
		"verification_state": domain.VerificationStudent,
	}).Return(nil)

	svc := newService(us, ts, cs, ml)
	u, err := svc.Redeem(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, u.EmailConfirmed)
	assert.Equal(t, domain.VerificationStudent, u.VerificationState)
	us.AssertExpectations(t)
	ts.AssertExpectations(t)
}

func TestRedeem_Consumed_ReturnsAlreadyUsed(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	now := time.Now().Unix()
	ts.On("Get", mock.Anything, "tok").Return(&domain.VerificationToken{
		Token: "tok", UserID: "u1", ExpiresAt: now + 3600, Consumed: true,
	}, nil)

	svc := newService(us, ts, cs, ml)
	_, err := svc.Redeem(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
	ts.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestRedeem_LostRace_ReturnsAlreadyUsed(t *testing.T) {
	// Token reads as fresh but another request consumed it first; the
	// conditional write is the arbiter.
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	now := time.Now().Unix()
	ts.On("Get", mock.Anything, "tok").Return(&domain.VerificationToken{
		Token: "tok", UserID: "u1", ExpiresAt: now + 3600,
	}, nil)
	ts.On("Consume", mock.Anything, "tok").Return(domain.ErrAlreadyUsed)

	svc := newService(us, ts, cs, ml)
	_, err := svc.Redeem(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestRedeem_Expired(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	ts.On("Get", mock.Anything, "tok").Return(&domain.VerificationToken{
		Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, nil)

	svc := newService(us, ts, cs, ml)
	_, err := svc.Redeem(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrExpired)
	ts.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestRedeem_Superseded(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	ts.On("Get", mock.Anything, "tok").Return(&domain.VerificationToken{
		Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).Unix(), Superseded: true,
	}, nil)

	svc := newService(us, ts, cs, ml)
	_, err := svc.Redeem(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrSuperseded)
}

func TestRedeem_UnknownToken(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	ts.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := newService(us, ts, cs, ml)
	_, err := svc.Redeem(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeem_EmptyToken(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	svc := newService(us, ts, cs, ml)
	_, err := svc.Redeem(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// --- Signup ---

func TestSignup_TrustedDomain_IssuesTokenAndLinksCollege(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("GetByEmail", mock.Anything, "alice@state-university.edu").Return(nil, domain.ErrNotFound)
	cs.On("GetByName", mock.Anything, "State University").Return(&domain.College{CollegeID: "c1", Name: "State University"}, nil)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@state-university.edu" &&
			u.VerificationState == domain.VerificationNone &&
			!u.EmailConfirmed &&
			u.CollegeID != nil && *u.CollegeID == "c1"
	})).Return(nil)
	ts.On("SupersedeActive", mock.Anything, mock.Anything, domain.PurposeEmailConfirmation).Return(nil)
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "alice@state-university.edu", "Confirm your email", mock.MatchedBy(func(body string) bool {
		return len(body) > 0
	})).Return(nil)

	svc := newService(us, ts, cs, ml)
	res, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "Alice@State-University.EDU", Name: "Alice",
	})
	require.NoError(t, err)
	assert.True(t, res.TrustedDomain)
	assert.False(t, res.RequiresOAuth)
	assert.Equal(t, "State University", res.CollegeName)
	us.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestSignup_UntrustedDomain_PointsAtOAuth(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("GetByEmail", mock.Anything, "alice@gmail.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@gmail.com" && u.CollegeID == nil
	})).Return(nil)

	svc := newService(us, ts, cs, ml)
	res, err := svc.Signup(context.Background(), domain.SignupRequest{Email: "alice@gmail.com", Name: "Alice"})
	require.NoError(t, err)
	assert.False(t, res.TrustedDomain)
	assert.True(t, res.RequiresOAuth)
	ts.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_VerifiedDuplicate_Conflict(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("GetByEmail", mock.Anything, "alice@harvard.edu").Return(&domain.User{
		UserID: "u1", Email: "alice@harvard.edu", EmailConfirmed: true,
	}, nil)

	svc := newService(us, ts, cs, ml)
	_, err := svc.Signup(context.Background(), domain.SignupRequest{Email: "alice@harvard.edu", Name: "Alice"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSignup_UnverifiedDuplicate_Resends(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("GetByEmail", mock.Anything, "alice@harvard.edu").Return(&domain.User{
		UserID: "u1", Email: "alice@harvard.edu", Name: "Alice",
	}, nil)
	ts.On("SupersedeActive", mock.Anything, "u1", domain.PurposeEmailConfirmation).Return(nil)
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "alice@harvard.edu", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, ts, cs, ml)
	res, err := svc.Signup(context.Background(), domain.SignupRequest{Email: "alice@harvard.edu", Name: "Alice"})
	require.NoError(t, err)
	assert.True(t, res.Resent)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	ml.AssertExpectations(t)
}

// --- Resend / Status ---

func TestResend_AlreadyConfirmed(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@b.edu").Return(&domain.User{UserID: "u1", EmailConfirmed: true}, nil)

	svc := newService(us, ts, cs, ml)
	err := svc.Resend(context.Background(), "a@b.edu")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestResend_UnknownEmail(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("GetByEmail", mock.Anything, "ghost@b.edu").Return(nil, domain.ErrNotFound)

	svc := newService(us, ts, cs, ml)
	err := svc.Resend(context.Background(), "ghost@b.edu")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatus_ConfirmedStudentCanPost(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", EmailConfirmed: true, VerificationState: domain.VerificationStudent,
	}, nil)

	svc := newService(us, ts, cs, ml)
	st, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, st.CanPostReviews)
	assert.Equal(t, domain.VerificationStudent, st.VerificationState)
}

func TestStatus_UnconfirmedCannotPost(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, ts, cs, ml)
	st, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, st.CanPostReviews)
}

func TestStatus_AlumniCanPostWithoutEmailConfirmation(t *testing.T) {
	us, ts, cs, ml := &mockUserStore{}, &mockTokenStore{}, &mockCollegeStore{}, &mockMailer{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", VerificationState: domain.VerificationAlumni,
	}, nil)

	svc := newService(us, ts, cs, ml)
	st, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, st.CanPostReviews)
}
