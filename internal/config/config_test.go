package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, GeminiAuthQuery, cfg.Gemini.AuthMode)
	assert.Equal(t, ReplyModeTwiML, cfg.ReplyMode)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL, "sessions never expire unless configured")
	assert.Equal(t, int64(20<<20), cfg.MaxMediaBytes)
	assert.True(t, cfg.ExposeUpstreamErrors)
	assert.True(t, cfg.ValidateWebhooks())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("SESSION_SWEEP_INTERVAL", "30s")
	t.Setenv("GEMINI_AUTH_MODE", "BEARER")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:9999/")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("EXPOSE_UPSTREAM_ERRORS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.SessionSweepInterval)
	assert.Equal(t, GeminiAuthBearer, cfg.Gemini.AuthMode)
	assert.Equal(t, "http://localhost:9999", cfg.Gemini.BaseURL)
	assert.False(t, cfg.ExposeUpstreamErrors)
	assert.False(t, cfg.ValidateWebhooks())
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("MAX_MEDIA_BYTES", "lots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
	assert.Equal(t, int64(20<<20), cfg.MaxMediaBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing gemini key",
			env:     map[string]string{"GEMINI_API_KEY": "", "TWILIO_AUTH_TOKEN": "token"},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"VISION_PROVIDER": "clippy"},
			wantErr: "VISION_PROVIDER",
		},
		{
			name:    "ollama needs no gemini key",
			env:     map[string]string{"VISION_PROVIDER": "ollama", "GEMINI_API_KEY": ""},
			wantErr: "",
		},
		{
			name:    "api reply mode needs sender number",
			env:     map[string]string{"REPLY_MODE": "api", "TWILIO_ACCOUNT_SID": "AC123"},
			wantErr: "TWILIO_WHATSAPP_FROM",
		},
		{
			name:    "signature validation needs auth token",
			env:     map[string]string{"TWILIO_AUTH_TOKEN": ""},
			wantErr: "TWILIO_AUTH_TOKEN",
		},
		{
			name:    "validation disabled",
			env:     map[string]string{"TWILIO_AUTH_TOKEN": "", "DISABLE_WEBHOOK_VALIDATION": "true"},
			wantErr: "",
		},
		{
			name:    "unknown storage driver",
			env:     map[string]string{"STORAGE_DRIVER": "redis"},
			wantErr: "STORAGE_DRIVER",
		},
		{
			name:    "negative ttl",
			env:     map[string]string{"SESSION_TTL": "-1m"},
			wantErr: "SESSION_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTwilioConfigured(t *testing.T) {
	assert.False(t, TwilioConfig{}.Configured())
	assert.False(t, TwilioConfig{AccountSID: "AC1"}.Configured())
	assert.True(t, TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}.Configured())
}
