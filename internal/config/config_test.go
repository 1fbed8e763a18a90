package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guildgate/guildgate-auth/internal/domain"
)

func setRequired(t *testing.T) {
	t.Setenv("OAUTH_CLIENT_ID", "client")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("OAUTH_REDIRECT_URI", "https://gate.example.com/auth/callback")
	t.Setenv("SERVICE_TOKEN", "svc-token")
	t.Setenv("GROUP_ID", "guild-1")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "guildgate-auth", cfg.ServiceName)
	require.Equal(t, KeyModeSubject, cfg.KeyMode)
	require.Equal(t, StoreMemory, cfg.StoreBackend)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, []string{"identify", "guilds.join"}, cfg.Scopes)
	require.Equal(t, domain.ProvisioningTarget{GroupID: "guild-1"}, cfg.Target())
}

func TestLoadMissingSecretIsConfigurationError(t *testing.T) {
	setRequired(t)
	t.Setenv("OAUTH_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "OAUTH_CLIENT_SECRET", cfgErr.Field)
}

func TestLoadPostgresRequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("CREDENTIAL_STORE", StorePostgres)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "DATABASE_URL", cfgErr.Field)
}

func TestLoadRejectsUnknownKeyMode(t *testing.T) {
	setRequired(t)
	t.Setenv("CREDENTIAL_KEY_MODE", "per-org")

	_, err := Load()
	require.Error(t, err)
}
