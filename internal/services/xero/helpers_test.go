package xero

import (
	"context"
	"sync"
	"testing"

	"ledgersync/internal/config"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

func newMemStore(values map[string]string) *memStore {
	if values == nil {
		values = map[string]string{}
	}
	return &memStore{values: values}
}

func (m *memStore) GetOption(_ context.Context, key, def string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok && v != "" {
		return v, nil
	}
	return def, nil
}

func (m *memStore) UpdateOption(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.writes++
	return nil
}

func (m *memStore) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		XeroAuthURL:        baseURL + "/identity/connect/authorize",
		XeroTokenURL:       baseURL + "/identity/connect/token",
		XeroAPIURL:         baseURL,
		XeroConnectionsURL: baseURL + "/connections",
		XeroRedirectURI:    "http://localhost:8080/api/v1/xero/callback",
		XeroScopes:         "offline_access accounting.settings",
	}
}

func validSession() map[string]string {
	return map[string]string{
		OptionClientID:     "client-id",
		OptionClientSecret: "client-secret",
		OptionAccessToken:  "access-old",
		OptionRefreshToken: "refresh-old",
		OptionTenantID:     "tenant-1",
	}
}
