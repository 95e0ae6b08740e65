// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devshelf/devshelf/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			AccessSecret:     "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTTLMinutes: 15,
			RefreshTTLHours:  168,
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Token.AccessSecret = ""

	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Token.RefreshSecret = ""

	assert.Error(t, cfg.Validate())
}

func TestValidate_GoogleNeedsStateSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Google.ClientID = "client-id"

	assert.Error(t, cfg.Validate())

	cfg.Google.StateSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SecretsMustDiffer(t *testing.T) {
	cfg := validConfig()
	cfg.Token.RefreshSecret = cfg.Token.AccessSecret

	assert.Error(t, cfg.Validate())
}

func TestFlags_CoverAllSettings(t *testing.T) {
	names := make(map[string]bool)
	for _, f := range config.Flags() {
		for _, n := range f.Names() {
			names[n] = true
		}
	}

	for _, required := range []string{
		"host", "port", "frontend-url", "max-body-size",
		"log-level", "log-format", "database-dsn",
		"access-token-secret", "refresh-token-secret",
		"access-token-ttl", "refresh-token-ttl",
		"otp-expiry", "otp-resend-interval",
		"google-client-id", "google-client-secret", "oauth-state-secret",
		"smtp-host", "smtp-port", "smtp-from",
		"storage-bucket", "storage-region", "storage-base-url",
	} {
		assert.True(t, names[required], "missing flag %q", required)
	}
}
