// Package auth decides whether a client may open the realtime channel.
// Tokens are checked against an identity provider and the outcome is
// expressed as an allow/deny access policy.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/config"
)

// Policy effects
const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

const (
	policyVersion      = "2012-10-17"
	invokeAction       = "execute-api:Invoke"
	anonymousPrincipal = "user"
)

// IdentityProvider resolves the user that owns an access token
type IdentityProvider interface {
	GetUser(ctx context.Context, accessToken string) (string, error)
}

// Verification is the outcome of a token check
type Verification struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
}

// Statement is a single access-policy statement
type Statement struct {
	Action   string `json:"Action"`
	Effect   string `json:"Effect"`
	Resource string `json:"Resource"`
}

// PolicyDocument lists the statements of a policy
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Policy is the access decision for a principal
type Policy struct {
	PrincipalID    string          `json:"principalId"`
	PolicyDocument *PolicyDocument `json:"policyDocument,omitempty"`
}

// Allowed reports whether every statement in the policy allows access
func (p Policy) Allowed() bool {
	if p.PolicyDocument == nil || len(p.PolicyDocument.Statement) == 0 {
		return false
	}
	for _, s := range p.PolicyDocument.Statement {
		if s.Effect != EffectAllow {
			return false
		}
	}
	return true
}

// Service verifies tokens and builds policies
type Service struct {
	provider IdentityProvider
	logger   *zap.Logger
}

// NewService creates a new auth service
func NewService(provider IdentityProvider, logger *zap.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// NewProvider builds the identity provider selected by cfg
func NewProvider(cfg config.AuthConfig) (IdentityProvider, error) {
	switch cfg.Provider {
	case config.AuthProviderJWT:
		return NewJWTProvider(JWTConfig{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
		}), nil
	case config.AuthProviderOIDC:
		return NewUserinfoProvider(UserinfoConfig{
			Issuer:      cfg.Issuer,
			UserinfoURL: cfg.UserinfoURL,
			HTTPClient:  &http.Client{Timeout: defaultHTTPTimeout},
		}), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
}

// VerifyToken asks the identity provider for the token's user. Any failure
// yields an invalid verification; the cause is only logged.
func (s *Service) VerifyToken(ctx context.Context, token string) Verification {
	username, err := s.provider.GetUser(ctx, token)
	if err != nil {
		s.logger.Warn("token verification failed", zap.Error(err))
		return Verification{Valid: false}
	}
	return Verification{Valid: true, Username: username}
}

// GeneratePolicy builds a policy for principalID. The document is only
// attached when both effect and resource are given.
func GeneratePolicy(principalID, effect, resource string) Policy {
	policy := Policy{PrincipalID: principalID}
	if effect != "" && resource != "" {
		policy.PolicyDocument = &PolicyDocument{
			Version: policyVersion,
			Statement: []Statement{{
				Action:   invokeAction,
				Effect:   effect,
				Resource: resource,
			}},
		}
	}
	return policy
}

// Authorize decides access to resource for the bearer of token
func (s *Service) Authorize(ctx context.Context, token, resource string) Policy {
	if token == "" {
		s.logger.Info("no token provided")
		return GeneratePolicy(anonymousPrincipal, EffectDeny, resource)
	}

	result := s.VerifyToken(ctx, token)
	if !result.Valid {
		return GeneratePolicy(anonymousPrincipal, EffectDeny, resource)
	}

	s.logger.Info("user verified", zap.String("username", result.Username))
	return GeneratePolicy(result.Username, EffectAllow, resource)
}
