package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBDriver:       "postgres",
		LLMBackend:     "openai",
		ChunkSize:      1000,
		ChunkOverlap:   200,
		RescheduleDays: 30,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INSTANCE_CONNECTION_NAME", "project:region:instance")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.ContextTTL)
	assert.Equal(t, 0.8, cfg.FAQThreshold)
	assert.Equal(t, 30, cfg.RescheduleDays)
	assert.True(t, cfg.TwilioValidateWebhook)
	assert.Equal(t, "Production (Cloud Run)", cfg.Environment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INSTANCE_CONNECTION_NAME", "project:region:instance")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CONTEXT_TTL", "30m")
	t.Setenv("RESCHEDULE_WINDOW_DAYS", "14")
	t.Setenv("USE_MEMORY_STORE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.ContextTTL)
	assert.Equal(t, 14, cfg.RescheduleDays)
	assert.True(t, cfg.UseMemoryStore)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"driver", func(c *Config) { c.DBDriver = "mysql" }, "unsupported DB_DRIVER"},
		{"backend", func(c *Config) { c.LLMBackend = "ollama" }, "unsupported LLM_BACKEND"},
		{"overlap", func(c *Config) { c.ChunkOverlap = 1000 }, "FAQ_CHUNK_OVERLAP"},
		{"window", func(c *Config) { c.RescheduleDays = 0 }, "RESCHEDULE_WINDOW_DAYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestTwilioConfigured(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.TwilioConfigured())
	cfg.TwilioAccountSID = "AC123"
	cfg.TwilioAuthToken = "secret"
	assert.False(t, cfg.TwilioConfigured())
	cfg.TwilioWhatsAppFrom = "whatsapp:+14155238886"
	assert.True(t, cfg.TwilioConfigured())
	assert.Equal(t, "Development (Local)", cfg.Environment())
}
