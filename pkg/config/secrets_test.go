package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), RelkitDir, DefaultSecretsFilename)
	secrets := map[string]string{
		"TWINE_USERNAME": "__token__",
		"TWINE_PASSWORD": "pypi-abc123",
	}

	require.NoError(t, EncryptSecretsFile(path, "passphrase", secrets))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	decrypted, err := DecryptSecretsFile(path, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, secrets, decrypted)
}

func TestSecretsWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultSecretsFilename)
	require.NoError(t, EncryptSecretsFile(path, "correct", map[string]string{"K": "v"}))

	_, err := DecryptSecretsFile(path, "wrong")
	require.Error(t, err)
}

func TestSecretsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultSecretsFilename)
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))

	_, err := DecryptSecretsFile(path, "any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")
}

func TestSecretsAsEnv(t *testing.T) {
	env := SecretsAsEnv(map[string]string{"TWINE_USERNAME": "__token__"})
	assert.Equal(t, []string{"TWINE_USERNAME=__token__"}, env)
}

func TestSecretsFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultSecretsFilename)
	assert.False(t, SecretsFileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	assert.True(t, SecretsFileExists(path))
}
