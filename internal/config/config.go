package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Kafka
	KafkaBrokers string
	OutcomeTopic string

	// API Configuration
	APIPort string
	APIHost string

	// Settings backend for the credential store: "database" or "redis"
	SettingsBackend string

	// Xero
	XeroClientID       string
	XeroClientSecret   string
	XeroRedirectURI    string
	XeroScopes         string
	XeroAuthURL        string
	XeroTokenURL       string
	XeroAPIURL         string
	XeroConnectionsURL string

	// Catalog source: "database", "woocommerce" or "shopify"
	CatalogSource string

	// WooCommerce
	WooCommerceURL            string
	WooCommerceConsumerKey    string
	WooCommerceConsumerSecret string

	// Shopify
	ShopifyShopDomain  string
	ShopifyAccessToken string

	// Sync
	SyncLogDir  string
	HTTPTimeout time.Duration

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:               getEnv("DATABASE_URL", "sqlite://ledgersync.db"),
		RedisURL:                  getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers:              getEnv("KAFKA_BROKERS", ""),
		OutcomeTopic:              getEnv("KAFKA_OUTCOME_TOPIC", "accounting-sync-outcomes"),
		APIPort:                   getEnv("API_PORT", "8080"),
		APIHost:                   getEnv("API_HOST", "0.0.0.0"),
		SettingsBackend:           getEnv("SETTINGS_BACKEND", "database"),
		XeroClientID:              getEnv("XERO_CLIENT_ID", ""),
		XeroClientSecret:          getEnv("XERO_CLIENT_SECRET", ""),
		XeroRedirectURI:           getEnv("XERO_REDIRECT_URI", "http://localhost:8080/api/v1/xero/callback"),
		XeroScopes:                getEnv("XERO_SCOPES", "offline_access accounting.settings accounting.settings.read"),
		XeroAuthURL:               getEnv("XERO_AUTH_URL", "https://login.xero.com/identity/connect/authorize"),
		XeroTokenURL:              getEnv("XERO_TOKEN_URL", "https://identity.xero.com/connect/token"),
		XeroAPIURL:                getEnv("XERO_API_URL", "https://api.xero.com"),
		XeroConnectionsURL:        getEnv("XERO_CONNECTIONS_URL", "https://api.xero.com/connections"),
		CatalogSource:             getEnv("CATALOG_SOURCE", "database"),
		WooCommerceURL:            getEnv("WOOCOMMERCE_URL", ""),
		WooCommerceConsumerKey:    getEnv("WOOCOMMERCE_CONSUMER_KEY", ""),
		WooCommerceConsumerSecret: getEnv("WOOCOMMERCE_CONSUMER_SECRET", ""),
		ShopifyShopDomain:         getEnv("SHOPIFY_SHOP_DOMAIN", ""),
		ShopifyAccessToken:        getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		SyncLogDir:                getEnv("SYNC_LOG_DIR", "logs"),
		HTTPTimeout:               time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		Env:                       getEnv("ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Scopes splits XeroScopes on whitespace.
func (c *Config) Scopes() []string {
	return strings.Fields(c.XeroScopes)
}

// KafkaBrokerList returns the comma separated broker list, or nil when Kafka is disabled.
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
