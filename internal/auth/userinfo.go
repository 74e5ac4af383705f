package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// UserinfoConfig configures the OIDC userinfo provider. When UserinfoURL is
// empty it is discovered from the issuer.
type UserinfoConfig struct {
	Issuer      string
	UserinfoURL string
	HTTPClient  *http.Client
}

// UserinfoProvider resolves access tokens through an OIDC userinfo endpoint
type UserinfoProvider struct {
	issuer string
	client *http.Client

	mu          sync.Mutex
	userinfoURL string
}

// NewUserinfoProvider creates a new userinfo provider
func NewUserinfoProvider(cfg UserinfoConfig) *UserinfoProvider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &UserinfoProvider{
		issuer:      strings.TrimRight(cfg.Issuer, "/"),
		client:      client,
		userinfoURL: cfg.UserinfoURL,
	}
}

type discoveryDocument struct {
	Issuer           string `json:"issuer"`
	UserinfoEndpoint string `json:"userinfo_endpoint"`
}

type userinfoResponse struct {
	Subject           string `json:"sub"`
	Username          string `json:"username"`
	CognitoUsername   string `json:"cognito:username"`
	PreferredUsername string `json:"preferred_username"`
}

// GetUser returns the username that owns accessToken
func (p *UserinfoProvider) GetUser(ctx context.Context, accessToken string) (string, error) {
	endpoint, err := p.endpoint(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decoding userinfo response: %w", err)
	}

	username := firstNonEmpty(info.Username, info.CognitoUsername, info.PreferredUsername, info.Subject)
	if username == "" {
		return "", errors.New("userinfo response has no username")
	}
	return username, nil
}

// endpoint returns the userinfo URL, running discovery once it succeeds
func (p *UserinfoProvider) endpoint(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.userinfoURL != "" {
		return p.userinfoURL, nil
	}
	if p.issuer == "" {
		return "", errors.New("no issuer or userinfo endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return "", fmt.Errorf("building discovery request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching OIDC discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OIDC discovery endpoint returned status %d", resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding OIDC discovery document: %w", err)
	}
	if doc.UserinfoEndpoint == "" {
		return "", errors.New("OIDC discovery document missing userinfo_endpoint")
	}

	p.userinfoURL = doc.UserinfoEndpoint
	return p.userinfoURL, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
