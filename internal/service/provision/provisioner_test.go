package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guildgate/guildgate-auth/internal/domain"
)

type fakeGroupClient struct {
	joinErr     error
	roleErr     error
	joinCalls   int
	roleCalls   int
	lastSubject string
	lastRole    string
}

func (f *fakeGroupClient) AddMember(ctx context.Context, serviceToken, groupID, subjectID, accessToken string) error {
	f.joinCalls++
	f.lastSubject = subjectID
	return f.joinErr
}

func (f *fakeGroupClient) AssignRole(ctx context.Context, serviceToken, groupID, subjectID, roleID string) error {
	f.roleCalls++
	f.lastRole = roleID
	return f.roleErr
}

func testCredential() domain.Credential {
	return domain.Credential{TokenType: "Bearer", AccessToken: "acc"}
}

func TestProvisionFullySucceeded(t *testing.T) {
	groups := &fakeGroupClient{}
	p := NewProvisioner(groups, zap.NewNop())

	res := p.Provision(context.Background(), "subj", testCredential(),
		domain.ProvisioningTarget{GroupID: "g", RoleID: "r"}, "svc")
	require.Equal(t, OutcomeFullySucceeded, res.Outcome)
	require.Empty(t, res.Detail)
	require.Equal(t, 1, groups.joinCalls)
	require.Equal(t, 1, groups.roleCalls)
	require.Equal(t, "r", groups.lastRole)
}

func TestProvisionJoinedNoRole(t *testing.T) {
	groups := &fakeGroupClient{}
	p := NewProvisioner(groups, zap.NewNop())

	res := p.Provision(context.Background(), "subj", testCredential(),
		domain.ProvisioningTarget{GroupID: "g"}, "svc")
	require.Equal(t, OutcomeJoinedNoRole, res.Outcome)
	require.Equal(t, 1, groups.joinCalls)
	require.Zero(t, groups.roleCalls)
	require.True(t, res.Outcome.Joined())
}

func TestProvisionJoinFailedStopsSequence(t *testing.T) {
	groups := &fakeGroupClient{joinErr: errors.New("status=403 body=Missing Access")}
	p := NewProvisioner(groups, zap.NewNop())

	res := p.Provision(context.Background(), "subj", testCredential(),
		domain.ProvisioningTarget{GroupID: "g", RoleID: "r"}, "svc")
	require.Equal(t, OutcomeJoinFailed, res.Outcome)
	require.Contains(t, res.Detail, "Missing Access")
	require.Zero(t, groups.roleCalls)
	require.False(t, res.Outcome.Joined())
}

func TestProvisionJoinedRoleFailedIsDistinct(t *testing.T) {
	groups := &fakeGroupClient{roleErr: errors.New("status=403 body=Missing Permissions")}
	p := NewProvisioner(groups, zap.NewNop())

	res := p.Provision(context.Background(), "subj", testCredential(),
		domain.ProvisioningTarget{GroupID: "g", RoleID: "r"}, "svc")
	require.Equal(t, OutcomeJoinedRoleFailed, res.Outcome)
	require.NotEqual(t, OutcomeJoinFailed, res.Outcome)
	require.Equal(t, 1, groups.joinCalls)
	require.Equal(t, 1, groups.roleCalls)
	require.True(t, res.Outcome.Joined())
}
