package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "info", cfg.LogLevel)

	// Dispatch defaults must be conservative and always present: there is no
	// code path that runs the worker without a configured rate ceiling.
	assert.Equal(t, 20, cfg.MaxSendsPerWindow)
	assert.Equal(t, time.Hour, cfg.SendWindow)
	assert.Equal(t, 3, cfg.RetryCeiling)
	assert.Equal(t, 2*time.Second, cfg.BackoffBase)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.SendTimeout)
	assert.Equal(t, 10*time.Minute, cfg.StaleSendingThreshold)
	assert.Equal(t, 10, cfg.WorkerBatchSize)
	assert.Equal(t, 2*time.Minute, cfg.AcquireWarnThreshold)

	assert.Equal(t, "smtp", cfg.RelayProvider)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.SMTPUseTLS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_SENDS_PER_WINDOW", "5")
	t.Setenv("SEND_WINDOW_SECONDS", "60")
	t.Setenv("RETRY_CEILING", "7")
	t.Setenv("RELAY_PROVIDER", "resend")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, 5, cfg.MaxSendsPerWindow)
	assert.Equal(t, time.Minute, cfg.SendWindow)
	assert.Equal(t, 7, cfg.RetryCeiling)
	assert.Equal(t, "resend", cfg.RelayProvider)
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}
