package domain

import "time"

// Credential represents one subject's delegated access grant as issued by the
// identity provider. Values are immutable; a refresh produces a new Credential
// that replaces the stored one wholesale.
type Credential struct {
	TokenType    string   `json:"token_type"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	Scope        []string `json:"scope,omitempty"`
	ObtainedAt   int64    `json:"obtained_at"`
}

// ExpiresAt returns the instant the access token stops being valid.
func (c Credential) ExpiresAt() time.Time {
	return time.Unix(c.ObtainedAt+c.ExpiresIn, 0)
}

// StaleAt reports whether the credential has expired as of now.
func (c Credential) StaleAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt())
}

// ProvisioningTarget identifies the group a subject is added to and the role
// granted afterwards. RoleID may be empty, in which case role assignment is
// skipped.
type ProvisioningTarget struct {
	GroupID string `json:"group_id"`
	RoleID  string `json:"role_id,omitempty"`
}

// ProvisionRecord is one audit entry for a provisioning attempt.
type ProvisionRecord struct {
	ID        int64
	SubjectID string
	GroupID   string
	RoleID    string
	Outcome   string
	Detail    string
	CreatedAt time.Time
}
