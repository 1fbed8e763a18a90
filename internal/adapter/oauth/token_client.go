package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guildgate/guildgate-auth/internal/config"
	"github.com/guildgate/guildgate-auth/internal/domain"
)

// TokenClient talks to the identity provider's token endpoint.
type TokenClient interface {
	ExchangeCode(ctx context.Context, code string) (domain.Credential, error)
	Refresh(ctx context.Context, old domain.Credential) (domain.Credential, error)
}

// IdentityClient resolves the authenticated subject behind an access token.
type IdentityClient interface {
	ResolveSubject(ctx context.Context, accessToken string) (string, error)
}

// HTTPProviderClient is the default HTTP implementation of both clients.
type HTTPProviderClient struct {
	cfg        config.Config
	httpClient *http.Client
}

var (
	_ TokenClient    = (*HTTPProviderClient)(nil)
	_ IdentityClient = (*HTTPProviderClient)(nil)
)

// NewHTTPProviderClient constructs the default provider client. Missing
// client registration is rejected here, before any flow can run, so a broken
// deployment never masquerades as an expired or invalid code.
func NewHTTPProviderClient(cfg config.Config, client *http.Client) (*HTTPProviderClient, error) {
	for _, req := range []struct {
		field string
		value string
	}{
		{"client id", cfg.ClientID},
		{"client secret", cfg.ClientSecret},
		{"redirect uri", cfg.RedirectURI},
		{"token url", cfg.TokenURL},
		{"userinfo url", cfg.UserInfoURL},
	} {
		if strings.TrimSpace(req.value) == "" {
			return nil, &domain.ConfigurationError{Field: req.field}
		}
	}
	if client == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPProviderClient{cfg: cfg, httpClient: client}, nil
}

// tokenWire models the provider token endpoint response body.
type tokenWire struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// ExchangeCode performs the authorization-code grant.
func (c *HTTPProviderClient) ExchangeCode(ctx context.Context, code string) (domain.Credential, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Credential{}, domain.ErrInvalidRequest
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)

	cred, reason, detail := c.postTokenForm(ctx, data)
	if reason != "" {
		return domain.Credential{}, &domain.ExchangeError{Reason: reason, Detail: detail}
	}
	return cred, nil
}

// Refresh performs the refresh-token grant. The returned credential replaces
// the old one verbatim, including a possibly rotated refresh token, with
// ObtainedAt stamped at call time.
func (c *HTTPProviderClient) Refresh(ctx context.Context, old domain.Credential) (domain.Credential, error) {
	if strings.TrimSpace(old.RefreshToken) == "" {
		return domain.Credential{}, domain.ErrInvalidRequest
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", old.RefreshToken)
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)

	cred, reason, detail := c.postTokenForm(ctx, data)
	if reason != "" {
		return domain.Credential{}, &domain.RefreshError{Reason: reason, Detail: detail}
	}
	return cred, nil
}

// postTokenForm issues the form-encoded token request shared by both grants.
// Transport failures and timeouts are reported as provider rejections, the
// same as a non-success status.
func (c *HTTPProviderClient) postTokenForm(ctx context.Context, data url.Values) (domain.Credential, domain.FailReason, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return domain.Credential{}, domain.ReasonProviderRejected, "build token request: " + err.Error()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Credential{}, domain.ReasonProviderRejected, "token request: " + err.Error()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Credential{}, domain.ReasonMalformedResponse, "read token response: " + err.Error()
	}
	if resp.StatusCode >= 300 {
		return domain.Credential{}, domain.ReasonProviderRejected, string(body)
	}

	var wire tokenWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return domain.Credential{}, domain.ReasonMalformedResponse, "decode token response: " + err.Error()
	}
	if strings.TrimSpace(wire.AccessToken) == "" {
		return domain.Credential{}, domain.ReasonMalformedResponse, "missing access_token"
	}

	cred := domain.Credential{
		TokenType:    wire.TokenType,
		AccessToken:  wire.AccessToken,
		RefreshToken: wire.RefreshToken,
		ExpiresIn:    wire.ExpiresIn,
		ObtainedAt:   time.Now().Unix(),
	}
	if wire.Scope != "" {
		cred.Scope = strings.Fields(wire.Scope)
	}
	return cred, "", ""
}

// ResolveSubject calls the provider "current user" endpoint with the access
// token as bearer credential and extracts the stable subject identifier.
func (c *HTTPProviderClient) ResolveSubject(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return "", &domain.IdentityError{Detail: "build userinfo request: " + err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.IdentityError{Detail: "userinfo request: " + err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.IdentityError{Detail: "read userinfo: " + err.Error()}
	}
	if resp.StatusCode >= 300 {
		return "", &domain.IdentityError{Detail: string(body)}
	}

	var wire struct {
		ID      string `json:"id"`
		Subject string `json:"sub"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return "", &domain.IdentityError{Detail: "decode userinfo: " + err.Error()}
	}

	subject := strings.TrimSpace(wire.ID)
	if subject == "" {
		subject = strings.TrimSpace(wire.Subject)
	}
	if subject == "" {
		return "", &domain.IdentityError{Detail: "missing subject identifier"}
	}
	return subject, nil
}
