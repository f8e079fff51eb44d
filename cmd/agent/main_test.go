package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/config"
	"github.com/ghostlogic/blackbox-agent/internal/transport"
)

func testCfg(t *testing.T, url string) (*config.Config, string) {
	t.Helper()
	t.Setenv("BLACKBOX_URL", "")
	t.Setenv("BLACKBOX_TENANT_KEY", "")
	path := filepath.Join(t.TempDir(), "agent.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Server.URL = url
	cfg.Server.TenantKey = ""
	return cfg, path
}

func TestEnsureRegistered_PersistsKeyFromBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/register", r.URL.Path)
		w.Write([]byte(`{"api_key":"glk_fresh","tenant_id":"t-9"}`))
	}))
	defer srv.Close()

	cfg, path := testCfg(t, srv.URL)
	require.NoError(t, ensureRegistered(context.Background(), cfg, path, zap.NewNop()))
	assert.Equal(t, "glk_fresh", cfg.Server.TenantKey)

	// The key must survive into the config file so a later process (the
	// detached child included) starts out authenticated.
	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "glk_fresh", saved.Server.TenantKey)
}

func TestEnsureRegistered_FailureLeavesNoKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"registration closed"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	cfg, path := testCfg(t, srv.URL)
	err := ensureRegistered(context.Background(), cfg, path, zap.NewNop())

	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Empty(t, cfg.Server.TenantKey)
}

func TestEnsureRegistered_SkipsWhenKeyConfigured(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	cfg, path := testCfg(t, srv.URL)
	cfg.Server.TenantKey = "glk_existing"

	require.NoError(t, ensureRegistered(context.Background(), cfg, path, zap.NewNop()))
	assert.False(t, called)
	assert.Equal(t, "glk_existing", cfg.Server.TenantKey)
}
