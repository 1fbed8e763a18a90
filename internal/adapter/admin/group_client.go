package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GroupClient encapsulates the provider's administrative API: adding a
// subject to a group and granting it a role. Both operations authenticate
// with the privileged service credential, not the user's OAuth credential.
type GroupClient interface {
	AddMember(ctx context.Context, serviceToken, groupID, subjectID, accessToken string) error
	AssignRole(ctx context.Context, serviceToken, groupID, subjectID, roleID string) error
}

// HTTPGroupClient is the default HTTP implementation.
type HTTPGroupClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ GroupClient = (*HTTPGroupClient)(nil)

// NewHTTPGroupClient constructs the default GroupClient.
func NewHTTPGroupClient(baseURL string, client *http.Client) *HTTPGroupClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGroupClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// AddMember joins the subject to the group, presenting the user's access
// token as the join proof. 201 means joined, 204 means already a member;
// both count as success.
func (c *HTTPGroupClient) AddMember(ctx context.Context, serviceToken, groupID, subjectID, accessToken string) error {
	endpoint := fmt.Sprintf("%s/guilds/%s/members/%s",
		c.baseURL, url.PathEscape(groupID), url.PathEscape(subjectID))

	payload, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return fmt.Errorf("encode join payload: %w", err)
	}

	return c.putJSON(ctx, serviceToken, endpoint, payload)
}

// AssignRole grants roleID to the subject within the group.
func (c *HTTPGroupClient) AssignRole(ctx context.Context, serviceToken, groupID, subjectID, roleID string) error {
	endpoint := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s",
		c.baseURL, url.PathEscape(groupID), url.PathEscape(subjectID), url.PathEscape(roleID))

	return c.putJSON(ctx, serviceToken, endpoint, nil)
}

func (c *HTTPGroupClient) putJSON(ctx context.Context, serviceToken, endpoint string, payload []byte) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return fmt.Errorf("build admin request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+serviceToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("admin request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read admin response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("admin call failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
