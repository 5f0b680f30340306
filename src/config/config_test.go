package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/processors"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CSRF_AUTH_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)
	LoadConfig()
	require.NotNil(t, Cfg)

	assert.Equal(t, "8080", Cfg.Port)
	assert.Equal(t, "test-secret", Cfg.JWTSecret)
	assert.Equal(t, time.Hour, Cfg.AccessTokenExpiry)
	assert.Equal(t, 15*time.Second, Cfg.BankAPITimeout)
	assert.Equal(t, processors.DefaultTrailingPeriods, Cfg.TrailingPeriods)
	assert.Equal(t, []string{"http://localhost:3000"}, Cfg.AllowedOrigins)
	assert.True(t, Cfg.Ratios.PPE.Equal(decimal.RequireFromString("0.30")))
	assert.Empty(t, Cfg.ReportArchiveBucket)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BANK_API_BASE_URL", "https://bank.example.com/")
	t.Setenv("BANK_API_RPS", "2.5")
	t.Setenv("TRAILING_PERIODS", "12")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RATIO_VAT", "0.2")
	t.Setenv("RATIO_PPE", "not-a-number")
	t.Setenv("RATIO_INVENTORY", "-1")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "soon")

	LoadConfig()

	assert.Equal(t, "https://bank.example.com", Cfg.BankAPIBaseURL)
	assert.Equal(t, 2.5, Cfg.BankAPIRPS)
	assert.Equal(t, 12, Cfg.TrailingPeriods)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, Cfg.AllowedOrigins)
	assert.True(t, Cfg.Ratios.VATRate.Equal(decimal.RequireFromString("0.2")))
	assert.True(t, Cfg.Ratios.PPE.Equal(decimal.RequireFromString("0.30")), "malformed ratio keeps default")
	assert.True(t, Cfg.Ratios.Inventory.Equal(decimal.RequireFromString("0.15")), "negative ratio keeps default")
	assert.Equal(t, time.Hour, Cfg.AccessTokenExpiry)
}
