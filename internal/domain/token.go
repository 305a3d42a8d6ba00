package domain

// Token purposes.
const PurposeEmailConfirmation = "email_confirmation"

// VerificationToken is a single-use, time-boxed credential tied to an account.
// PK: token. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
//
// Lifecycle: issued -> consumed (success), issued -> expired, or
// issued -> superseded (a newer token was issued for the same owner/purpose).
// Consumed and Superseded are monotonic false->true; a token in either
// terminal state never satisfies a redemption again.
type VerificationToken struct {
	Token      string `json:"-" dynamodbav:"token"`
	UserID     string `json:"user_id" dynamodbav:"user_id"`
	Purpose    string `json:"purpose" dynamodbav:"purpose"`
	IssuedAt   int64  `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Consumed   bool   `json:"consumed" dynamodbav:"consumed"`
	Superseded bool   `json:"superseded" dynamodbav:"superseded"`
}
