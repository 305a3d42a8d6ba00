package domain

import "time"

// Verification states. Exactly one holds at any time; the empty string means
// the account has not yet established either trust tier.
const (
	VerificationNone    = ""
	VerificationStudent = "student"
	VerificationAlumni  = "alumni"
)

type User struct {
	UserID            string     `json:"id" dynamodbav:"user_id"`
	Email             string     `json:"email" dynamodbav:"email"`
	Name              string     `json:"name" dynamodbav:"name"`
	VerificationState string     `json:"verification_state" dynamodbav:"verification_state"` // "" | "student" | "alumni"
	EmailConfirmed    bool       `json:"email_confirmed" dynamodbav:"email_confirmed"`
	CollegeID         *string    `json:"college_id,omitempty" dynamodbav:"college_id"`
	OAuthSubjectID    string     `json:"-" dynamodbav:"oauth_subject_id"`
	OAuthVerifiedAt   *time.Time `json:"oauth_verified_at,omitempty" dynamodbav:"oauth_verified_at"`
	CreatedAt         time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// CanPostReviews reports whether the account has reached a trust tier that
// permits posting content: an email-confirmed student, or any alumni.
func (u *User) CanPostReviews() bool {
	return (u.EmailConfirmed && u.VerificationState == VerificationStudent) ||
		u.VerificationState == VerificationAlumni
}

type SignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}
