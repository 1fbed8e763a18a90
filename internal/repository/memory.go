package repository

import (
	"context"
	"sync"

	"github.com/guildgate/guildgate-auth/internal/domain"
)

// Compile-time interface assertions.
var (
	_ CredentialStore        = (*MemoryCredentialStore)(nil)
	_ SettingsRepository     = (*MemorySettingsRepo)(nil)
	_ ProvisionLogRepository = (*MemoryProvisionLog)(nil)
)

// MemoryCredentialStore keeps credentials in process memory. It is the
// default backend for single-tenant deployments and tests.
type MemoryCredentialStore struct {
	mu   sync.RWMutex
	data map[string]domain.Credential
}

// NewMemoryCredentialStore constructs an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{data: make(map[string]domain.Credential)}
}

// Put replaces the credential stored under key as one atomic write.
func (s *MemoryCredentialStore) Put(ctx context.Context, key string, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cred
	return nil
}

// Get returns the stored credential or nil when absent.
func (s *MemoryCredentialStore) Get(ctx context.Context, key string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	copied := cred
	return &copied, nil
}

// MemorySettingsRepo serves group settings from a fixed map.
type MemorySettingsRepo struct {
	mu      sync.RWMutex
	targets map[string]domain.ProvisioningTarget
}

// NewMemorySettingsRepo constructs the repo from optional seed settings.
func NewMemorySettingsRepo(seed map[string]domain.ProvisioningTarget) *MemorySettingsRepo {
	targets := make(map[string]domain.ProvisioningTarget, len(seed))
	for k, v := range seed {
		targets[k] = v
	}
	return &MemorySettingsRepo{targets: targets}
}

// GetTarget looks up the settings record for groupID.
func (r *MemorySettingsRepo) GetTarget(ctx context.Context, groupID string) (domain.ProvisioningTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.targets[groupID]
	if !ok {
		return domain.ProvisioningTarget{}, ErrTargetNotConfigured
	}
	return target, nil
}

// SetTarget stores a settings record, mainly for tests and dev seeding.
func (r *MemorySettingsRepo) SetTarget(groupID string, target domain.ProvisioningTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[groupID] = target
}

// MemoryProvisionLog buffers audit records in memory.
type MemoryProvisionLog struct {
	mu      sync.Mutex
	records []domain.ProvisionRecord
}

// NewMemoryProvisionLog constructs an empty log.
func NewMemoryProvisionLog() *MemoryProvisionLog {
	return &MemoryProvisionLog{}
}

// Record appends one audit entry.
func (l *MemoryProvisionLog) Record(ctx context.Context, rec domain.ProvisionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// Records returns a copy of the buffered entries.
func (l *MemoryProvisionLog) Records() []domain.ProvisionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.ProvisionRecord, len(l.records))
	copy(out, l.records)
	return out
}
