package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guildgate/guildgate-auth/internal/domain"
)

// Compile-time interface assertions.
var (
	_ CredentialStore        = (*PostgresCredentialStore)(nil)
	_ SettingsRepository     = (*PostgresSettingsRepo)(nil)
	_ ProvisionLogRepository = (*PostgresProvisionLog)(nil)
)

// PostgresCredentialStore persists credentials in the credentials table. The
// upsert keeps each write a complete replacement, so concurrent flows for the
// same key resolve last-writer-wins without interleaving fields.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCredentialStore wires the store onto a pgx pool.
func NewPostgresCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

const upsertCredentialSQL = `INSERT INTO credentials (store_key, token_type, access_token, refresh_token, expires_in, scope, obtained_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (store_key) DO UPDATE SET
	token_type = EXCLUDED.token_type,
	access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	expires_in = EXCLUDED.expires_in,
	scope = EXCLUDED.scope,
	obtained_at = EXCLUDED.obtained_at`

// Put upserts the credential stored under key.
func (s *PostgresCredentialStore) Put(ctx context.Context, key string, cred domain.Credential) error {
	_, err := s.pool.Exec(ctx, upsertCredentialSQL,
		key,
		cred.TokenType,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresIn,
		strings.Join(cred.Scope, " "),
		cred.ObtainedAt,
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

// Get loads the credential stored under key, or nil when absent.
func (s *PostgresCredentialStore) Get(ctx context.Context, key string) (*domain.Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT token_type, access_token, refresh_token, expires_in, scope, obtained_at
		 FROM credentials WHERE store_key = $1`, key)

	var (
		cred  domain.Credential
		scope string
	)
	err := row.Scan(&cred.TokenType, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresIn, &scope, &cred.ObtainedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if scope != "" {
		cred.Scope = strings.Fields(scope)
	}
	return &cred, nil
}

// PostgresSettingsRepo resolves group settings rows.
type PostgresSettingsRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresSettingsRepo wires the repo onto a pgx pool.
func NewPostgresSettingsRepo(pool *pgxpool.Pool) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{pool: pool}
}

// GetTarget returns the settings record for groupID.
func (r *PostgresSettingsRepo) GetTarget(ctx context.Context, groupID string) (domain.ProvisioningTarget, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT group_id, role_id FROM group_settings WHERE group_id = $1`, groupID)

	var target domain.ProvisioningTarget
	err := row.Scan(&target.GroupID, &target.RoleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProvisioningTarget{}, ErrTargetNotConfigured
	}
	if err != nil {
		return domain.ProvisioningTarget{}, fmt.Errorf("get target: %w", err)
	}
	return target, nil
}

// PostgresProvisionLog writes audit rows keyed by snowflake IDs.
type PostgresProvisionLog struct {
	pool *pgxpool.Pool
	node *snowflake.Node
}

// NewPostgresProvisionLog wires the audit log onto a pgx pool.
func NewPostgresProvisionLog(pool *pgxpool.Pool, node *snowflake.Node) *PostgresProvisionLog {
	return &PostgresProvisionLog{pool: pool, node: node}
}

const insertProvisionRecordSQL = `INSERT INTO provision_log (id, subject_id, group_id, role_id, outcome, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record inserts one audit entry.
func (l *PostgresProvisionLog) Record(ctx context.Context, rec domain.ProvisionRecord) error {
	id := rec.ID
	if id == 0 {
		id = l.node.Generate().Int64()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := l.pool.Exec(ctx, insertProvisionRecordSQL,
		id, rec.SubjectID, rec.GroupID, rec.RoleID, rec.Outcome, rec.Detail, createdAt,
	); err != nil {
		return fmt.Errorf("record provision outcome: %w", err)
	}
	return nil
}
