// Package app wires configuration into the services a sync run needs.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ledgersync/internal/catalog"
	"ledgersync/internal/config"
	"ledgersync/internal/connectors/shopify"
	"ledgersync/internal/connectors/woocommerce"
	"ledgersync/internal/database"
	"ledgersync/internal/events"
	"ledgersync/internal/logger"
	"ledgersync/internal/reconcile"
	"ledgersync/internal/services/xero"
	"ledgersync/internal/settings"
	"ledgersync/internal/synclog"
)

const (
	BackendDatabase = "database"
	BackendRedis    = "redis"

	SourceDatabase    = "database"
	SourceWooCommerce = "woocommerce"
	SourceShopify     = "shopify"
)

var ErrUnknownBackend = errors.New("unknown backend")

type App struct {
	Config *config.Config
	Logger *logger.Logger

	DB          *database.Database
	Settings    settings.Store
	Credentials *xero.CredentialStore
	OAuth       *xero.OAuthService
	Tokens      *xero.TokenManager
	Connector   *xero.Connector
	Catalog     catalog.Reader
	SyncLog     *synclog.Writer
	Publisher   *events.Publisher
	Runner      *reconcile.Runner

	closers []func() error
}

// New opens every backing service. On error, whatever was opened is closed again.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.DB, err = database.New(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.DB.Close)

	if a.Settings, err = a.newSettingsStore(ctx); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	a.Credentials = xero.NewCredentialStore(a.Settings, cfg.XeroClientID, cfg.XeroClientSecret)
	a.OAuth = xero.NewOAuthService(cfg, httpClient, log)
	a.Tokens = xero.NewTokenManager(a.Credentials, a.OAuth, log)
	a.Connector = xero.NewConnector(cfg.XeroAPIURL, httpClient, log)

	if a.Catalog, err = a.newCatalogReader(httpClient); err != nil {
		return nil, err
	}

	if a.SyncLog, err = synclog.NewWriter(cfg.SyncLogDir); err != nil {
		return nil, err
	}

	// With Kafka configured the worker owns the flat log, and lines are
	// written directly only while the broker cannot be reached.
	var sink reconcile.Sink = a.SyncLog
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		a.Publisher = events.NewPublisher(brokers, cfg.OutcomeTopic, log)
		a.closers = append(a.closers, a.Publisher.Close)
		sink = reconcile.NewFallbackSink(a.Publisher, a.SyncLog, log)
		log.Info("Publishing sync outcomes to Kafka topic %s", cfg.OutcomeTopic)
	}

	a.Runner = reconcile.NewRunner(a.Tokens, reconcile.ConnectWith(a.Connector), a.Catalog, sink, log)
	return a, nil
}

func (a *App) newSettingsStore(ctx context.Context) (settings.Store, error) {
	switch a.Config.SettingsBackend {
	case "", BackendDatabase:
		return settings.NewGormStore(a.DB.DB), nil
	case BackendRedis:
		store, err := settings.NewRedisStoreFromURL(ctx, a.Config.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("%w: settings backend %q", ErrUnknownBackend, a.Config.SettingsBackend)
	}
}

func (a *App) newCatalogReader(httpClient *http.Client) (catalog.Reader, error) {
	cfg := a.Config
	switch cfg.CatalogSource {
	case "", SourceDatabase:
		return catalog.NewDBReader(a.DB.DB), nil
	case SourceWooCommerce:
		if cfg.WooCommerceURL == "" || cfg.WooCommerceConsumerKey == "" || cfg.WooCommerceConsumerSecret == "" {
			return nil, errors.New("woocommerce catalog requires WOOCOMMERCE_URL, WOOCOMMERCE_CONSUMER_KEY and WOOCOMMERCE_CONSUMER_SECRET")
		}
		return woocommerce.New(cfg.WooCommerceURL, cfg.WooCommerceConsumerKey, cfg.WooCommerceConsumerSecret, httpClient, a.Logger), nil
	case SourceShopify:
		if cfg.ShopifyShopDomain == "" || cfg.ShopifyAccessToken == "" {
			return nil, errors.New("shopify catalog requires SHOPIFY_SHOP_DOMAIN and SHOPIFY_ACCESS_TOKEN")
		}
		return shopify.New(cfg.ShopifyShopDomain, cfg.ShopifyAccessToken, httpClient, a.Logger), nil
	default:
		return nil, fmt.Errorf("%w: catalog source %q", ErrUnknownBackend, cfg.CatalogSource)
	}
}

// Close releases resources in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
