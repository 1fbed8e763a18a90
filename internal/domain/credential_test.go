package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCredentialStaleness(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cred := Credential{
		TokenType:   "Bearer",
		AccessToken: "access",
		ExpiresIn:   3600,
		ObtainedAt:  t0.Unix(),
	}

	require.False(t, cred.StaleAt(t0.Add(3599*time.Second)))
	require.True(t, cred.StaleAt(t0.Add(3600*time.Second)))
	require.True(t, cred.StaleAt(t0.Add(3601*time.Second)))
	require.Equal(t, t0.Add(time.Hour).Unix(), cred.ExpiresAt().Unix())
}
