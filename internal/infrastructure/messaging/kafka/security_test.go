package kafka

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityConfig_SASL(t *testing.T) {
	mech, err := SecurityConfig{}.saslMechanism()
	require.NoError(t, err)
	assert.Nil(t, mech)

	for _, name := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		mech, err := SecurityConfig{SASLMechanism: name, SASLUsername: "u", SASLPassword: "p"}.saslMechanism()
		require.NoError(t, err, name)
		assert.Equal(t, name, mech.Name())
	}

	_, err = SecurityConfig{SASLMechanism: "OAUTHBEARER"}.saslMechanism()
	assert.Error(t, err)
}

func TestSecurityConfig_TLS(t *testing.T) {
	cfg, err := SecurityConfig{}.tlsConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = SecurityConfig{TLSEnabled: true}.tlsConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.RootCAs)

	_, err = SecurityConfig{TLSEnabled: true, TLSCAPath: filepath.Join(t.TempDir(), "missing.pem")}.tlsConfig()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0o600))
	_, err = SecurityConfig{TLSEnabled: true, TLSCAPath: bad}.tlsConfig()
	assert.Error(t, err)
}

//Personal.AI order the ending
