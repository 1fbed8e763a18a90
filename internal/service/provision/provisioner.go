package provision

import (
	"context"

	"go.uber.org/zap"

	"github.com/guildgate/guildgate-auth/internal/adapter/admin"
	"github.com/guildgate/guildgate-auth/internal/domain"
)

// Outcome is the four-way result of a provisioning sequence. Partial success
// (joined, role failed) carries different remediation than total failure, so
// the variants are never collapsed to a boolean.
type Outcome string

const (
	// OutcomeFullySucceeded: joined the group and received the role.
	OutcomeFullySucceeded Outcome = "fully_succeeded"
	// OutcomeJoinedNoRole: joined; no role configured, none attempted.
	OutcomeJoinedNoRole Outcome = "joined_no_role"
	// OutcomeJoinedRoleFailed: joined, but role assignment failed. The join
	// is durable on the external system and must not be treated as a no-op.
	OutcomeJoinedRoleFailed Outcome = "joined_role_failed"
	// OutcomeJoinFailed: the join itself failed; role never attempted.
	OutcomeJoinFailed Outcome = "join_failed"
)

// Joined reports whether the subject ended up in the group.
func (o Outcome) Joined() bool {
	return o != OutcomeJoinFailed
}

// Result pairs the outcome with the failing step's detail, if any.
type Result struct {
	Outcome Outcome
	Detail  string
}

// Provisioner drives the join-group-then-assign-role sequence against the
// administrative API using the privileged service credential.
type Provisioner struct {
	groups admin.GroupClient
	logger *zap.Logger
}

// NewProvisioner wires the provisioning orchestrator.
func NewProvisioner(groups admin.GroupClient, logger *zap.Logger) *Provisioner {
	return &Provisioner{groups: groups, logger: logger}
}

// Provision runs the sequence. Steps are sequential with no rollback: each
// step's success is durable on the external system, so a role failure after
// a successful join is reported as its own outcome.
func (p *Provisioner) Provision(ctx context.Context, subjectID string, cred domain.Credential, target domain.ProvisioningTarget, serviceToken string) Result {
	if err := p.groups.AddMember(ctx, serviceToken, target.GroupID, subjectID, cred.AccessToken); err != nil {
		p.log().Warn("group join failed",
			zap.String("subject_id", subjectID),
			zap.String("group_id", target.GroupID),
			zap.Error(err))
		return Result{Outcome: OutcomeJoinFailed, Detail: err.Error()}
	}

	if target.RoleID == "" {
		return Result{Outcome: OutcomeJoinedNoRole}
	}

	if err := p.groups.AssignRole(ctx, serviceToken, target.GroupID, subjectID, target.RoleID); err != nil {
		p.log().Warn("role assignment failed after join",
			zap.String("subject_id", subjectID),
			zap.String("group_id", target.GroupID),
			zap.String("role_id", target.RoleID),
			zap.Error(err))
		return Result{Outcome: OutcomeJoinedRoleFailed, Detail: err.Error()}
	}

	return Result{Outcome: OutcomeFullySucceeded}
}

func (p *Provisioner) log() *zap.Logger {
	if p != nil && p.logger != nil {
		return p.logger
	}
	return zap.L()
}
