package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  server:
    address: ":9000"
    cors:
      origins:
        - https://example.com
        - " https://other.example.com "
modules:
  verification:
    otp:
      ttl: 120
    store:
      driver: redis
  contact:
    owner_email: "owner@example.com"
tags: "a:1, b:2,broken"
`

func TestNewViperFromBytes(t *testing.T) {
	_, err := NewViperFromBytes("", []byte(sampleYAML))
	assert.Error(t, err)

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	t.Run("file values win over defaults", func(t *testing.T) {
		assert.Equal(t, ":9000", cfg.GetString("app.server.address"))
		assert.Equal(t, 2*time.Minute, cfg.GetSecond("modules.verification.otp.ttl"))
		assert.Equal(t, "redis", cfg.GetString("modules.verification.store.driver"))
	})

	t.Run("defaults fill missing keys", func(t *testing.T) {
		assert.Equal(t, time.Minute, cfg.GetSecond("modules.verification.otp.cooldown"))
		assert.Equal(t, 3, cfg.GetInt("modules.verification.otp.max_attempts"))
		assert.True(t, cfg.GetBool("modules.verification.delivery.async"))
		assert.Equal(t, 30*time.Minute, cfg.GetMinute("modules.verification.credential.ttl"))
	})

	t.Run("arrays accept sequences and comma strings", func(t *testing.T) {
		assert.Equal(t, []string{"https://example.com", "https://other.example.com"}, cfg.GetArray("app.server.cors.origins"))
		assert.Contains(t, cfg.GetArray("app.server.cors.headers"), "x-client-info")
		assert.Empty(t, cfg.GetArray("does.not.exist"))
	})

	t.Run("map", func(t *testing.T) {
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, cfg.GetMap("tags"))
	})
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("CONTACTGATE_MODULES_VERIFICATION_OTP_MAX_ATTEMPTS", "5")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetInt("modules.verification.otp.max_attempts"))
}
