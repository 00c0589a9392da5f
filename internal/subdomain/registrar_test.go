package subdomain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	ids map[string]*int64
}

func (m *memoryStore) SetHostingDomainID(ctx context.Context, tenantID string, domainID *int64) error {
	if m.ids == nil {
		m.ids = map[string]*int64{}
	}
	m.ids[tenantID] = domainID
	return nil
}

func newMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestCPanelAddSubdomain(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"cpanelresult":{"event":{"result":1}}}`))
	}))
	defer srv.Close()

	r := New(Config{
		ServerType:    "cpanel",
		CentralDomain: "pos.test",
		Dir:           "public_html",
		Username:      "root",
		APIKey:        "KEY",
		BaseURL:       srv.URL,
	}, nil, newMetrics(t), zap.NewNop())

	ok := r.AddSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"})
	assert.True(t, ok)
	require.NotNil(t, got)
	assert.Equal(t, cpanelPath, got.URL.Path)
	assert.Equal(t, "cpanel root:KEY", got.Header.Get("Authorization"))
	q := got.URL.Query()
	assert.Equal(t, "addsubdomain", q.Get("cpanel_jsonapi_func"))
	assert.Equal(t, "acme", q.Get("domain"))
	assert.Equal(t, "pos.test", q.Get("rootdomain"))
	assert.Equal(t, "public_html", q.Get("dir"))
}

func TestCPanelServerErrorIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cpanel_jsonapi_func") == "delsubdomain" {
			assert.Equal(t, "acme.pos.test", r.URL.Query().Get("domain"))
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := newMetrics(t)
	r := New(Config{ServerType: "cpanel", CentralDomain: "pos.test", BaseURL: srv.URL}, nil, m, zap.NewNop())

	assert.False(t, r.AddSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"}))
	assert.False(t, r.DeleteSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"}))
}

func TestCPanelUnreachableIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := New(Config{ServerType: "cpanel", CentralDomain: "pos.test", BaseURL: url}, nil, nil, zap.NewNop())
	assert.False(t, r.AddSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"}))
}

func TestPleskAddPersistsDomainID(t *testing.T) {
	var body pleskCreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "pw", pass)

		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, pleskDomainsPath, r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":17,"guid":"b4b0"}`))
		case http.MethodDelete:
			assert.Equal(t, pleskDomainsPath+"/17", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	store := &memoryStore{}
	m := newMetrics(t)
	r := New(Config{
		ServerType:    "Plesk",
		CentralDomain: "pos.test",
		Dir:           "httpdocs",
		Username:      "admin",
		Password:      "pw",
		BaseURL:       srv.URL,
	}, store, m, zap.NewNop())

	tenant := &tenantdomain.Tenant{ID: "acme"}
	require.True(t, r.AddSubdomain(context.Background(), tenant))
	assert.Equal(t, "acme.pos.test", body.Name)
	assert.Equal(t, "pos.test", body.ParentDomain.Name)
	assert.Equal(t, "httpdocs", body.HostingSettings.DocumentRoot)
	require.NotNil(t, store.ids["acme"])
	assert.Equal(t, int64(17), *store.ids["acme"])
	require.NotNil(t, tenant.HostingDomainID)

	require.True(t, r.DeleteSubdomain(context.Background(), tenant))
	assert.Nil(t, store.ids["acme"])
	assert.Nil(t, tenant.HostingDomainID)
}

func TestPleskDeleteWithoutDomainID(t *testing.T) {
	r := New(Config{ServerType: "plesk", CentralDomain: "pos.test", BaseURL: "http://127.0.0.1:1"}, nil, nil, zap.NewNop())
	assert.False(t, r.DeleteSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"}))
}

func TestUnsupportedServerType(t *testing.T) {
	r := New(Config{ServerType: "directadmin"}, nil, nil, zap.NewNop())
	assert.IsType(t, &unsupported{}, r)
	assert.False(t, r.AddSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"}))
	assert.False(t, r.DeleteSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"}))
}

func TestRegistrarMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	r := New(Config{ServerType: "cpanel", CentralDomain: "pos.test", BaseURL: srv.URL}, nil, m, zap.NewNop())
	r.AddSubdomain(context.Background(), &tenantdomain.Tenant{ID: "acme"})
	r.AddSubdomain(context.Background(), &tenantdomain.Tenant{ID: "globex"})

	count, err := testutil.GatherAndCount(reg, "possaas_subdomain_registrar_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
