package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/guildgate/guildgate-auth/internal/adapter/oauth"
	"github.com/guildgate/guildgate-auth/internal/config"
	"github.com/guildgate/guildgate-auth/internal/domain"
	"github.com/guildgate/guildgate-auth/internal/repository"
	"github.com/guildgate/guildgate-auth/internal/service/provision"
	"github.com/guildgate/guildgate-auth/internal/settings"
)

// CredentialService drives the two user-facing flows: completing an
// authorization (exchange, persist, resolve, provision) and refreshing a
// stored credential. Every flow yields exactly one terminal outcome.
type CredentialService interface {
	CompleteAuthorization(ctx context.Context, code string) (*CompletionResult, error)
	RefreshCredential(ctx context.Context, key string) (*domain.Credential, error)
	GetCredential(ctx context.Context, key string) (*domain.Credential, error)
	AuthorizeURL() (string, error)
}

// CompletionResult reports a finished authorization flow.
type CompletionResult struct {
	SubjectID  string
	Credential domain.Credential
	Provision  provision.Result
}

type credentialService struct {
	tokens      oauth.TokenClient
	identity    oauth.IdentityClient
	store       repository.CredentialStore
	provisioner *provision.Provisioner
	targets     *settings.Resolver
	audit       repository.ProvisionLogRepository
	cfg         config.Config
	logger      *zap.Logger
}

// NewCredentialService wires the lifecycle orchestrator.
func NewCredentialService(
	tokens oauth.TokenClient,
	identity oauth.IdentityClient,
	store repository.CredentialStore,
	provisioner *provision.Provisioner,
	targets *settings.Resolver,
	audit repository.ProvisionLogRepository,
	cfg config.Config,
	logger *zap.Logger,
) CredentialService {
	return &credentialService{
		tokens:      tokens,
		identity:    identity,
		store:       store,
		provisioner: provisioner,
		targets:     targets,
		audit:       audit,
		cfg:         cfg,
		logger:      logger,
	}
}

// CompleteAuthorization exchanges the code, persists the credential, resolves
// the subject, and provisions it. An exchange failure short-circuits before
// any persistence or provisioning; an identity failure stops before
// provisioning. In per-subject key mode the credential cannot be keyed until
// the subject is known, so persistence happens right after resolution there.
func (s *credentialService) CompleteAuthorization(ctx context.Context, code string) (*CompletionResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrInvalidRequest
	}

	cred, err := s.tokens.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cfg.KeyMode == config.KeyModeSingle {
		if err := s.store.Put(ctx, s.cfg.CredentialKey, cred); err != nil {
			return nil, fmt.Errorf("persist credential: %w", err)
		}
	}

	subjectID, err := s.identity.ResolveSubject(ctx, cred.AccessToken)
	if err != nil {
		return nil, err
	}

	if s.cfg.KeyMode == config.KeyModeSubject {
		if err := s.store.Put(ctx, subjectID, cred); err != nil {
			return nil, fmt.Errorf("persist credential: %w", err)
		}
	}

	target, err := s.targets.Resolve(ctx, s.cfg.GroupID)
	if err != nil {
		return nil, err
	}

	result := s.provisioner.Provision(ctx, subjectID, cred, target, s.cfg.ServiceToken)
	s.recordOutcome(ctx, subjectID, target, result)

	s.log().Info("authorization completed",
		zap.String("subject_id", subjectID),
		zap.String("group_id", target.GroupID),
		zap.String("outcome", string(result.Outcome)))

	return &CompletionResult{
		SubjectID:  subjectID,
		Credential: cred,
		Provision:  result,
	}, nil
}

// RefreshCredential loads the stored credential for key, refreshes it and
// persists the replacement. It never touches the provisioning sequence.
func (s *credentialService) RefreshCredential(ctx context.Context, key string) (*domain.Credential, error) {
	storeKey, err := s.storeKey(key)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Get(ctx, storeKey)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if stored == nil {
		return nil, domain.ErrCredentialNotFound
	}

	fresh, err := s.tokens.Refresh(ctx, *stored)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, storeKey, fresh); err != nil {
		return nil, fmt.Errorf("persist refreshed credential: %w", err)
	}

	s.log().Info("credential refreshed", zap.String("key", storeKey))
	return &fresh, nil
}

// GetCredential returns the stored credential for key, or nil when absent.
func (s *credentialService) GetCredential(ctx context.Context, key string) (*domain.Credential, error) {
	storeKey, err := s.storeKey(key)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, storeKey)
}

// AuthorizeURL builds the provider consent URL users are redirected to.
func (s *credentialService) AuthorizeURL() (string, error) {
	authURL, err := url.Parse(s.cfg.AuthorizeURL)
	if err != nil {
		return "", &domain.ConfigurationError{Field: "authorize url"}
	}
	params := authURL.Query()
	params.Set("client_id", s.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("scope", strings.Join(s.cfg.Scopes, " "))
	authURL.RawQuery = params.Encode()
	return authURL.String(), nil
}

// storeKey maps the caller-provided key through the deployment's addressing
// mode. Mixing modes within one deployment is a design error, so the single
// sentinel key always wins in single mode.
func (s *credentialService) storeKey(requested string) (string, error) {
	if s.cfg.KeyMode == config.KeyModeSingle {
		return s.cfg.CredentialKey, nil
	}
	key := strings.TrimSpace(requested)
	if key == "" {
		return "", domain.ErrInvalidRequest
	}
	return key, nil
}

// recordOutcome audits a provisioning attempt; failures are logged, never
// fatal for the flow.
func (s *credentialService) recordOutcome(ctx context.Context, subjectID string, target domain.ProvisioningTarget, result provision.Result) {
	if s.audit == nil {
		return
	}
	rec := domain.ProvisionRecord{
		SubjectID: subjectID,
		GroupID:   target.GroupID,
		RoleID:    target.RoleID,
		Outcome:   string(result.Outcome),
		Detail:    result.Detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.log().Warn("failed to record provisioning outcome", zap.Error(err))
	}
}

func (s *credentialService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
