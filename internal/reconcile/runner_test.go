package reconcile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/internal/catalog"
	"ledgersync/internal/config"
	"ledgersync/internal/logger"
	"ledgersync/internal/services/xero"
)

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *mapStore) GetOption(_ context.Context, key, def string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.values[key]; v != "" {
		return v, nil
	}
	return def, nil
}

func (m *mapStore) UpdateOption(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type staticCatalog struct {
	records []catalog.ProductRecord
	err     error
	calls   int
}

func (c *staticCatalog) GetProducts(context.Context, catalog.Query) ([]catalog.ProductRecord, error) {
	c.calls++
	return c.records, c.err
}

// xeroServer fakes the token endpoint and the accounting API. Only "access-new" is accepted.
type xeroServer struct {
	*httptest.Server
	refreshStatus int
	refreshCalls  atomic.Int32
	lookups       atomic.Int32
}

func newXeroServer(t *testing.T, refreshStatus int) *xeroServer {
	t.Helper()
	xs := &xeroServer{refreshStatus: refreshStatus}
	xs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			xs.refreshCalls.Add(1)
			w.WriteHeader(xs.refreshStatus)
			if xs.refreshStatus == http.StatusOK {
				w.Write([]byte(`{"access_token":"access-new","refresh_token":"refresh-new","token_type":"Bearer","expires_in":1800}`))
			} else {
				w.Write([]byte(`{"error":"invalid_grant"}`))
			}
			return
		}
		if r.Header.Get("Authorization") != "Bearer access-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api.xro/2.0/Organisation":
			w.Write([]byte(`{"Organisations":[{"OrganisationID":"org-1","Name":"Demo"}]}`))
		case "/api.xro/2.0/Items":
			xs.lookups.Add(1)
			if r.URL.Query().Get("where") == `Code=="A1"` {
				w.Write([]byte(`{"Items":[{"ItemID":"i-1","Code":"A1"}]}`))
				return
			}
			w.Write([]byte(`{"Items":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(xs.Close)
	return xs
}

func newRunner(t *testing.T, xs *xeroServer, values map[string]string, reader catalog.Reader, sink Sink) (*Runner, *mapStore) {
	t.Helper()
	cfg := &config.Config{
		XeroTokenURL: xs.URL + "/token",
		XeroAuthURL:  xs.URL + "/authorize",
		XeroAPIURL:   xs.URL,
	}
	log := logger.NewNop()
	store := &mapStore{values: values}
	tokens := xero.NewTokenManager(
		xero.NewCredentialStore(store, "", ""),
		xero.NewOAuthService(cfg, xs.Client(), log),
		log,
	)
	connector := xero.NewConnector(cfg.XeroAPIURL, xs.Client(), log)
	return NewRunner(tokens, ConnectWith(connector), reader, sink, log), store
}

func expiredSession() map[string]string {
	return map[string]string{
		xero.OptionClientID:     "client-id",
		xero.OptionClientSecret: "client-secret",
		xero.OptionAccessToken:  "access-old",
		xero.OptionRefreshToken: "refresh-old",
		xero.OptionTenantID:     "tenant-1",
		xero.OptionTokenExpires: strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10),
	}
}

func TestRun_ExpiredTokenRefreshedThenProcessed(t *testing.T) {
	xs := newXeroServer(t, http.StatusOK)
	reader := &staticCatalog{records: products("A1", "", "B2")}
	sink := &recordingSink{}
	runner, store := newRunner(t, xs, expiredSession(), reader, sink)

	report, err := runner.Run(context.Background(), catalog.Query{})

	require.NoError(t, err)
	assert.Equal(t, int32(1), xs.refreshCalls.Load())
	assert.Equal(t, int32(2), xs.lookups.Load())
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, []Status{StatusFound, StatusSkipped, StatusNotFound},
		[]Status{report.Outcomes[0].Status, report.Outcomes[1].Status, report.Outcomes[2].Status})
	assert.Equal(t, 1, report.Counts[StatusFound])
	assert.False(t, report.Fatal())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "access-new", store.values[xero.OptionAccessToken])
	assert.Len(t, sink.entries, 3)
}

func TestRun_RefreshFailsIsFatal(t *testing.T) {
	xs := newXeroServer(t, http.StatusBadRequest)
	reader := &staticCatalog{records: products("A1", "B2")}
	sink := &recordingSink{}
	runner, _ := newRunner(t, xs, expiredSession(), reader, sink)

	report, err := runner.Run(context.Background(), catalog.Query{})

	assert.ErrorIs(t, err, xero.ErrRefreshFailed)
	require.NotNil(t, report)
	assert.True(t, report.Fatal())
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusFatal, report.Outcomes[0].Status)
	assert.Equal(t, int32(1), xs.refreshCalls.Load())
	assert.Equal(t, int32(0), xs.lookups.Load())
	assert.Equal(t, 0, reader.calls)
	require.Len(t, sink.entries, 1)
	assert.Equal(t, StatusFatal, sink.entries[0].Outcome.Status)
}

func TestRun_MissingCredentialsIsFatal(t *testing.T) {
	xs := newXeroServer(t, http.StatusOK)
	values := expiredSession()
	delete(values, xero.OptionTenantID)
	runner, _ := newRunner(t, xs, values, &staticCatalog{}, nil)

	report, err := runner.Run(context.Background(), catalog.Query{})

	assert.ErrorIs(t, err, xero.ErrMissingCredentials)
	assert.True(t, report.Fatal())
	assert.Equal(t, int32(0), xs.refreshCalls.Load())
}

func TestRun_RevokedTokenIsUnauthorized(t *testing.T) {
	xs := newXeroServer(t, http.StatusOK)
	values := expiredSession()
	values[xero.OptionTokenExpires] = strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	reader := &staticCatalog{records: products("A1")}
	runner, _ := newRunner(t, xs, values, reader, nil)

	report, err := runner.Run(context.Background(), catalog.Query{})

	assert.ErrorIs(t, err, xero.ErrUnauthorized)
	assert.True(t, report.Fatal())
	assert.Equal(t, int32(0), xs.refreshCalls.Load())
	assert.Equal(t, 0, reader.calls)
}

func TestRun_CatalogFailureIsFatal(t *testing.T) {
	xs := newXeroServer(t, http.StatusOK)
	reader := &staticCatalog{err: errors.Join(catalog.ErrCatalog, errors.New("store offline"))}
	runner, _ := newRunner(t, xs, expiredSession(), reader, nil)

	report, err := runner.Run(context.Background(), catalog.Query{})

	assert.ErrorIs(t, err, catalog.ErrCatalog)
	assert.True(t, report.Fatal())
	assert.Equal(t, int32(0), xs.lookups.Load())
}

type blockingFinder struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFinder) FindItemsByCode(context.Context, string) ([]xero.Item, error) {
	close(f.started)
	<-f.release
	return nil, nil
}

type staticSession struct{ calls atomic.Int32 }

func (s *staticSession) EnsureValidSession(context.Context) (xero.Credentials, error) {
	s.calls.Add(1)
	return xero.Credentials{AccessToken: "a", RefreshToken: "r", TenantID: "t"}, nil
}

func TestRun_RejectsOverlappingRun(t *testing.T) {
	finder := &blockingFinder{started: make(chan struct{}), release: make(chan struct{})}
	sessions := &staticSession{}
	connect := func(context.Context, xero.Credentials) (ItemFinder, error) { return finder, nil }
	runner := NewRunner(sessions, connect, &staticCatalog{records: products("A1")}, nil, logger.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background(), catalog.Query{})
		done <- err
	}()
	<-finder.started

	report, err := runner.Run(context.Background(), catalog.Query{})
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, report)
	assert.Equal(t, int32(1), sessions.calls.Load())

	close(finder.release)
	require.NoError(t, <-done)
}

func TestReportSummary(t *testing.T) {
	r := &Report{Outcomes: []Outcome{{Status: StatusFound}, {Status: StatusError}}}
	r.finish(time.Now())
	assert.Equal(t, "2 processed: 1 found, 0 not found, 0 skipped, 1 errors", r.Summary())

	f := &Report{Outcomes: []Outcome{Fatal(errors.New("no session"))}}
	assert.Equal(t, "sync failed: no session", f.Summary())
}
