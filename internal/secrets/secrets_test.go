package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestGroqAPIKeyPrefersEnv(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(Service, GroqAccount, "from-keyring"))
	t.Setenv(GroqEnv, "  from-env  ")

	key, err := GroqAPIKey()
	require.NoError(t, err)
	require.Equal(t, "from-env", key)

	source, err := GroqAPIKeySource()
	require.NoError(t, err)
	require.Equal(t, SourceEnv, source)
}

func TestGroqAPIKeyFallsBackToKeyring(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(Service, GroqAccount, "from-keyring\n"))
	t.Setenv(GroqEnv, "")

	key, err := GroqAPIKey()
	require.NoError(t, err)
	require.Equal(t, "from-keyring", key)

	source, err := GroqAPIKeySource()
	require.NoError(t, err)
	require.Equal(t, SourceKeyring, source)
}

func TestGroqAPIKeyMissing(t *testing.T) {
	keyring.MockInit()
	t.Setenv(GroqEnv, "")

	_, err := GroqAPIKey()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGroqAPIKeyBlankKeyringValue(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(Service, GroqAccount, "   "))
	t.Setenv(GroqEnv, "")

	_, err := GroqAPIKey()
	require.ErrorIs(t, err, ErrNotFound)
}
