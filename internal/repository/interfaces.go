package repository

import (
	"context"
	"errors"

	"github.com/guildgate/guildgate-auth/internal/domain"
)

// ErrTargetNotConfigured signals that no settings record exists for a group.
var ErrTargetNotConfigured = errors.New("repository: target not configured")

// CredentialStore persists credential records keyed by subject identity (or a
// fixed sentinel key in single-tenant deployments). Writes are atomic per
// key; the store never expires entries itself — staleness is checked by
// callers against the Credential value.
type CredentialStore interface {
	Put(ctx context.Context, key string, cred domain.Credential) error
	// Get returns nil when no credential is stored under key.
	Get(ctx context.Context, key string) (*domain.Credential, error)
}

// SettingsRepository resolves the per-group provisioning settings record.
type SettingsRepository interface {
	// GetTarget returns ErrTargetNotConfigured when no record exists.
	GetTarget(ctx context.Context, groupID string) (domain.ProvisioningTarget, error)
}

// ProvisionLogRepository records provisioning attempts for operators.
type ProvisionLogRepository interface {
	Record(ctx context.Context, rec domain.ProvisionRecord) error
}
