package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields issued by the identity provider.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Provider verifies RS256 JWTs minted by the external identity provider.
// This service never issues session tokens itself; it only needs the public
// key to recognise the calling account on authenticated routes.
type Provider struct {
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey // set only in tests via NewSigningProvider
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &Provider{publicKey: pubKey}, nil
}

// NewSigningProvider builds a provider around an in-memory key pair so tests
// can mint tokens the verifier accepts.
func NewSigningProvider(privateKey *rsa.PrivateKey) *Provider {
	return &Provider{publicKey: &privateKey.PublicKey, privateKey: privateKey}
}

func (p *Provider) Sign(userID, email string, expiry time.Duration) (string, error) {
	if p.privateKey == nil {
		return "", errors.New("provider has no signing key")
	}
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
