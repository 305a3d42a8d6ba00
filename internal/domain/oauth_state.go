package domain

// OAuthState is the persisted anti-forgery value binding one alumni
// verification attempt. PK: state. Single-use: Used flips false->true exactly
// once, before the authorization code is exchanged, so a replayed callback
// fails closed. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OAuthState struct {
	State     string `dynamodbav:"state"`
	UserID    string `dynamodbav:"user_id"` // empty when the flow started unauthenticated
	ExpiresAt int64  `dynamodbav:"expires_at"`
	Used      bool   `dynamodbav:"used"`
}
