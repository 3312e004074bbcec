package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "kyc_gateway", cfg.Mongo.Database)
	assert.Equal(t, "kyc.verification.completed", cfg.NATS.Subject)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "https://www.titantechinvestments.in/close", cfg.SurePass.RedirectURL)
	assert.False(t, cfg.KYC.OptimisticCode)
	assert.Equal(t, 4, cfg.KYC.Workers)
	assert.False(t, cfg.IsProduction())
	assert.NoError(t, cfg.Validate())
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                 "production",
		"JWT_SECRET":          "s3cret",
		"TOKEN_TTL":           "24h",
		"KYC_OPTIMISTIC_CODE": "true",
		"KYC_WORKERS":         "8",
		"SUREPASS_API_TOKEN":  "tok",
		"REDIS_DB":            "2",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.KYC.OptimisticCode)
	assert.Equal(t, 8, cfg.KYC.Workers)
	assert.Equal(t, "tok", cfg.SurePass.APIToken)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestValidate_RequiresJWTSecret(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}
