package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildgate/guildgate-auth/internal/domain"
	"github.com/guildgate/guildgate-auth/internal/repository"
)

// Resolver yields the provisioning target for a group. Deployments either
// run purely off static configuration or layer a per-group settings record
// on top of it; the record wins when present.
type Resolver struct {
	repo   repository.SettingsRepository
	static domain.ProvisioningTarget
}

// NewResolver builds a resolver. repo may be nil for static-only deployments.
func NewResolver(repo repository.SettingsRepository, static domain.ProvisioningTarget) *Resolver {
	return &Resolver{repo: repo, static: static}
}

// Resolve returns the effective target for groupID. A missing settings
// record falls back to the static target; any other repository failure is
// returned, since provisioning against a wrong role is worse than a
// retryable error.
func (r *Resolver) Resolve(ctx context.Context, groupID string) (domain.ProvisioningTarget, error) {
	if r.repo == nil {
		return r.static, nil
	}
	target, err := r.repo.GetTarget(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrTargetNotConfigured) {
			return r.static, nil
		}
		return domain.ProvisioningTarget{}, fmt.Errorf("resolve target: %w", err)
	}
	return target, nil
}
