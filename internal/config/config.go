package config

import (
	"os"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// PublicBaseURL is the externally reachable origin used to build links
	// embedded in verification emails and OAuth redirects.
	PublicBaseURL string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// RedisAddr is optional. When empty the rate limiter runs on the
	// in-process counter store only.
	RedisAddr     string
	RedisPassword string

	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInRedirectURL  string

	JWTPublicKeyPath string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users              string
	VerificationTokens string
	Colleges           string
	OAuthStates        string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	baseURL := getEnv("PUBLIC_BASE_URL", "http://localhost:3000")
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		PublicBaseURL:  baseURL,
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:              getEnv("DYNAMO_TABLE_USERS", "users"),
			VerificationTokens: getEnv("DYNAMO_TABLE_VERIFICATION_TOKENS", "verification_tokens"),
			Colleges:           getEnv("DYNAMO_TABLE_COLLEGES", "colleges"),
			OAuthStates:        getEnv("DYNAMO_TABLE_OAUTH_STATES", "oauth_states"),
		},
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		LinkedInClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedInRedirectURL:  getEnv("LINKEDIN_REDIRECT_URL", baseURL+"/v1/oauth/callback"),
		JWTPublicKeyPath:     getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		SMTPHost:             getEnv("SMTP_HOST", "localhost"),
		SMTPPort:             getEnv("SMTP_PORT", "1025"),
		SMTPFrom:             getEnv("SMTP_FROM", "noreply@ratemycollege.example"),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
