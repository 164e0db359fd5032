package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  env: production
instrument:
  log_mask_fields: "otp, dev_code,,authorization "
modules:
  mfa:
    enabled: true
    otp:
      ttl_seconds: 180
      lock_minutes: 15
    delivery:
      destination: ""
`

func TestNewViperFromBytes(t *testing.T) {
	t.Run("ReadsTypedValues", func(t *testing.T) {
		// Arrange
		cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
		require.NoError(t, err)

		// Act & Assert
		assert.True(t, cfg.GetBool("modules.mfa.enabled"))
		assert.Equal(t, 3*time.Minute, cfg.GetSecond("modules.mfa.otp.ttl_seconds"))
		assert.Equal(t, 15*time.Minute, cfg.GetMinute("modules.mfa.otp.lock_minutes"))
		assert.Equal(t, []string{"otp", "dev_code", "authorization"}, cfg.GetArray("instrument.log_mask_fields"))
		assert.Empty(t, cfg.GetArray("instrument.missing"))
		assert.False(t, cfg.IsSet("modules.mfa.otp.resend_interval_seconds"))
	})

	t.Run("EnvironmentOverridesFile", func(t *testing.T) {
		// Arrange
		t.Setenv("MODULES_MFA_ENABLED", "false")
		cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
		require.NoError(t, err)

		// Act & Assert
		assert.False(t, cfg.GetBool("modules.mfa.enabled"))
	})

	t.Run("LegacyAliases", func(t *testing.T) {
		// Arrange
		t.Setenv("ADMIN_PHONE", "+33600000000")
		t.Setenv("CALLMEBOT_API_KEY", "secret-key")
		t.Setenv("NODE_ENV", "development")
		cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
		require.NoError(t, err)

		// Act & Assert
		assert.Equal(t, "+33600000000", cfg.GetString("modules.mfa.delivery.destination"))
		assert.Equal(t, "secret-key", cfg.GetString("modules.mfa.delivery.api_key"))
		assert.Equal(t, "development", cfg.GetString("app.env"))
	})

	t.Run("RequiresType", func(t *testing.T) {
		_, err := NewViperFromBytes(" ", []byte(sampleYAML))
		assert.Error(t, err)
	})
}
