package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/internal/catalog"
	"ledgersync/internal/config"
	"ledgersync/internal/connectors/shopify"
	"ledgersync/internal/connectors/woocommerce"
	"ledgersync/internal/logger"
	"ledgersync/internal/services/xero"
	"ledgersync/internal/settings"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DatabaseURL:     "sqlite://" + filepath.Join(dir, "app.db"),
		SettingsBackend: BackendDatabase,
		CatalogSource:   SourceDatabase,
		SyncLogDir:      filepath.Join(dir, "logs"),
		HTTPTimeout:     5 * time.Second,
		XeroAPIURL:      "http://127.0.0.1:1",
		XeroClientID:    "env-client",
	}
}

func TestNew_DatabaseDefaults(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.IsType(t, &settings.GormStore{}, a.Settings)
	assert.IsType(t, &catalog.DBReader{}, a.Catalog)
	assert.Nil(t, a.Publisher)
	assert.NotNil(t, a.Runner)

	creds, err := a.Credentials.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-client", creds.ClientID)
}

func TestNew_RunWithoutSessionIsFatal(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	report, err := a.Runner.Run(context.Background(), catalog.Query{})
	assert.ErrorIs(t, err, xero.ErrMissingCredentials)
	assert.True(t, report.Fatal())

	files, err := a.SyncLog.List()
	require.NoError(t, err)
	assert.Len(t, files, 1, "the fatal outcome lands in the flat log")
}

func TestNew_UnreachableBrokerStillWritesFlatLog(t *testing.T) {
	cfg := testConfig(t)
	cfg.KafkaBrokers = "127.0.0.1:1"
	cfg.OutcomeTopic = "sync-outcomes"

	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NotNil(t, a.Publisher)

	report, err := a.Runner.Run(context.Background(), catalog.Query{})
	assert.ErrorIs(t, err, xero.ErrMissingCredentials)
	assert.True(t, report.Fatal())

	files, err := a.SyncLog.List()
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(filepath.Join(a.SyncLog.Dir(), files[0].Name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FATAL - ")
}

func TestNew_RedisSettings(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.SettingsBackend = BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.IsType(t, &settings.RedisStore{}, a.Settings)
	require.NoError(t, a.Credentials.SaveTenant(context.Background(), "tenant-1"))
	assert.Equal(t, "tenant-1", mr.HGet(settings.DefaultRedisHash, xero.OptionTenantID))
}

func TestNew_CatalogSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogSource = SourceWooCommerce
	cfg.WooCommerceURL = "https://shop.example"
	cfg.WooCommerceConsumerKey = "ck"
	cfg.WooCommerceConsumerSecret = "cs"
	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &woocommerce.WooCommerceConnector{}, a.Catalog)
	require.NoError(t, a.Close())

	cfg = testConfig(t)
	cfg.CatalogSource = SourceShopify
	cfg.ShopifyShopDomain = "demo"
	cfg.ShopifyAccessToken = "shpat"
	a, err = New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &shopify.ShopifyConnector{}, a.Catalog)
	require.NoError(t, a.Close())
}

func TestNew_InvalidConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogSource = "magento"
	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.ErrorIs(t, err, ErrUnknownBackend)

	cfg = testConfig(t)
	cfg.SettingsBackend = "etcd"
	_, err = New(context.Background(), cfg, logger.NewNop())
	assert.ErrorIs(t, err, ErrUnknownBackend)

	cfg = testConfig(t)
	cfg.CatalogSource = SourceShopify
	_, err = New(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, "SHOPIFY_SHOP_DOMAIN")
}
