package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkavo-labs/accord/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ACCORD_STATE_PATH", "ACCORD_POLICY_DIR", "ACCORD_PROFILE",
		"ACCORD_REDIS_ADDR", "ACCORD_AUDIT_STREAM", "ACCORD_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := config.Load()
	assert.Equal(t, "accord.db", cfg.StatePath)
	assert.Equal(t, "accord:audit", cfg.AuditStream)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ACCORD_STATE_PATH", "/var/lib/accord/state.db")
	t.Setenv("ACCORD_REDIS_ADDR", "localhost:6379")
	t.Setenv("ACCORD_LOG_LEVEL", "DEBUG")

	cfg := config.Load()
	assert.Equal(t, "/var/lib/accord/state.db", cfg.StatePath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

const validProfile = `
name: staging
owner: ops-root
addresses:
  entitlement_registry: addr-registry
  attribute_store: addr-attrs
  policy_engine: addr-engine
  payment_ledger: addr-ledger
processors:
  - stripe-bridge
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfile_Valid(t *testing.T) {
	p, err := config.LoadProfile(writeProfile(t, validProfile))
	require.NoError(t, err)

	assert.Equal(t, "staging", p.Name)
	assert.Equal(t, "ops-root", p.Owner)
	assert.Equal(t, "addr-registry", p.Addresses.EntitlementRegistry)
	assert.Equal(t, []string{"stripe-bridge"}, p.Processors)
}

func TestLoadProfile_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "{{{"},
		{"missing owner", "name: x\naddresses:\n  entitlement_registry: a\n  attribute_store: b\n  policy_engine: c\n  payment_ledger: d\n"},
		{"missing address", "owner: x\naddresses:\n  entitlement_registry: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadProfile(writeProfile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := config.LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
