package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8004, cfg.HTTPPort)
	assert.Equal(t, ProviderRazorpay, cfg.PaymentProvider)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL())
	assert.Equal(t, []string{"123 Main Street", "New York, NY, 10025"}, cfg.ShopAddress())
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Empty(t, cfg.RazorpayKeyID)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PaymentProvider(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("PAYMENT_PROVIDER", " Mock ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.PaymentProvider)

	t.Setenv("PAYMENT_PROVIDER", "paypal")
	_, err = Load()
	assert.ErrorContains(t, err, "PAYMENT_PROVIDER")

	t.Setenv("PAYMENT_PROVIDER", "mock")
	t.Setenv("ENVIRONMENT", "production")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ORDER_HTTP_PORT", "70000")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid HTTP port")
}

func TestShopAddress_SkipsBlankLines(t *testing.T) {
	cfg := &Config{ShopAddressLine1: " 1 Lane ", ShopAddressLine2: "  "}

	assert.Equal(t, []string{"1 Lane"}, cfg.ShopAddress())
}
