package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures local token verification
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Claims are the access token claims read by JWTProvider
type Claims struct {
	jwt.RegisteredClaims
	Username          string `json:"username,omitempty"`
	CognitoUsername   string `json:"cognito:username,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// JWTProvider verifies HS256 access tokens locally
type JWTProvider struct {
	cfg JWTConfig
}

// NewJWTProvider creates a new JWT provider
func NewJWTProvider(cfg JWTConfig) *JWTProvider {
	return &JWTProvider{cfg: cfg}
}

// GetUser validates accessToken and returns its username claim
func (p *JWTProvider) GetUser(_ context.Context, accessToken string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return p.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("parsing access token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid access token")
	}

	username := firstNonEmpty(claims.Username, claims.CognitoUsername, claims.PreferredUsername, claims.Subject)
	if username == "" {
		return "", errors.New("access token has no username")
	}
	return username, nil
}
