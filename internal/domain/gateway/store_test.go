package gateway

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	_, err := store.AddService("payments", "http://payments.internal:8080/", []string{"core"})
	require.NoError(t, err)
	return store
}

func TestAddService(t *testing.T) {
	store := newTestStore(t)

	svc, ok := store.Service("payments")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(svc.ID, "svc_"))
	assert.Equal(t, "http://payments.internal:8080", svc.URL, "trailing slash trimmed")
	assert.Equal(t, []string{"core"}, svc.Tags)
	assert.False(t, svc.CreatedAt.IsZero())
}

func TestAddServiceRejectsInvalid(t *testing.T) {
	store := NewStore()

	_, err := store.AddService("", "http://x.internal", nil)
	assert.Error(t, err)

	_, err = store.AddService("ledger", "payments.internal:8080", nil)
	assert.Error(t, err, "relative URL rejected")

	_, err = store.AddService("ledger", "/just/a/path", nil)
	assert.Error(t, err)
}

func TestAddServiceDuplicate(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddService("payments", "http://other.internal", nil)
	assert.ErrorIs(t, err, ErrServiceExists)
}

func TestAddRoute(t *testing.T) {
	store := newTestStore(t)

	route, err := store.AddRoute(types.Route{
		Name:    "submit",
		Service: "payments",
		Methods: []string{"post", "Get"},
		Paths:   []string{"/api/payments/**"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(route.ID, "rt_"))
	assert.Equal(t, []string{"POST", "GET"}, route.Methods, "methods normalized to upper case")
	assert.False(t, route.CreatedAt.IsZero())
}

func TestAddRouteValidation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRoute(types.Route{Name: "submit", Service: "payments"})
	assert.Error(t, err, "at least one path required")

	_, err = store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"api/payments"}})
	assert.Error(t, err, "paths must be absolute")

	_, err = store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"/api/[payments"}})
	assert.Error(t, err, "invalid glob pattern rejected")

	_, err = store.AddRoute(types.Route{Name: "submit", Service: "ledger", Paths: []string{"/api/ledger"}})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestAddRouteDuplicate(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"/a"}})
	require.NoError(t, err)

	_, err = store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"/b"}})
	assert.ErrorIs(t, err, ErrRouteExists)
}

func TestAddPlugin(t *testing.T) {
	store := newTestStore(t)

	plugin, err := store.AddPlugin(types.Plugin{Name: PluginCORS, Enabled: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plugin.ID, "plg_"))

	_, err = store.AddPlugin(types.Plugin{Name: "auth-keys", Enabled: true})
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestAddPluginScoping(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"/api/payments"}})
	require.NoError(t, err)

	_, err = store.AddPlugin(types.Plugin{Name: PluginRateLimit, Route: "submit", Enabled: true})
	require.NoError(t, err)

	// same plugin again on the same route is a duplicate, another scope is fine
	_, err = store.AddPlugin(types.Plugin{Name: PluginRateLimit, Route: "submit", Enabled: true})
	assert.ErrorIs(t, err, ErrPluginExists)

	_, err = store.AddPlugin(types.Plugin{Name: PluginRateLimit, Enabled: true})
	assert.NoError(t, err)

	_, err = store.AddPlugin(types.Plugin{Name: PluginTracing, Route: "missing", Enabled: true})
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestGlobalPlugins(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"/api/payments"}})
	require.NoError(t, err)

	_, err = store.AddPlugin(types.Plugin{Name: PluginCORS, Enabled: true})
	require.NoError(t, err)
	_, err = store.AddPlugin(types.Plugin{Name: PluginTracing, Enabled: false})
	require.NoError(t, err)
	_, err = store.AddPlugin(types.Plugin{Name: PluginRateLimit, Route: "submit", Enabled: true})
	require.NoError(t, err)

	global := store.GlobalPlugins()
	require.Len(t, global, 1, "disabled and route-scoped plugins excluded")
	assert.Equal(t, PluginCORS, global[0].Name)
}

func TestMatchByMethodAndPattern(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRoute(types.Route{
		Name:    "submit",
		Service: "payments",
		Methods: []string{"POST"},
		Paths:   []string{"/api/payments/**"},
	})
	require.NoError(t, err)

	route, svc, ok := store.Match(http.MethodPost, "/api/payments/submit")
	require.True(t, ok)
	assert.Equal(t, "submit", route.Name)
	assert.Equal(t, "payments", svc.Name)

	_, _, ok = store.Match(http.MethodGet, "/api/payments/submit")
	assert.False(t, ok, "method not allowed")

	_, _, ok = store.Match(http.MethodPost, "/api/ledger/submit")
	assert.False(t, ok, "no pattern matches")
}

func TestMatchPriorityFollowsConfigurationOrder(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddService("ledger", "http://ledger.internal:8080", nil)
	require.NoError(t, err)

	_, err = store.AddRoute(types.Route{Name: "specific", Service: "ledger", Paths: []string{"/api/payments/audit"}})
	require.NoError(t, err)
	_, err = store.AddRoute(types.Route{Name: "catchall", Service: "payments", Paths: []string{"/api/payments/**"}})
	require.NoError(t, err)

	route, svc, ok := store.Match(http.MethodGet, "/api/payments/audit")
	require.True(t, ok)
	assert.Equal(t, "specific", route.Name, "first configured route wins")
	assert.Equal(t, "ledger", svc.Name)
}

func TestListingPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddService("ledger", "http://ledger.internal:8080", nil)
	require.NoError(t, err)
	_, err = store.AddService("notify", "http://notify.internal:8080", nil)
	require.NoError(t, err)

	services := store.Services()
	require.Len(t, services, 3)
	assert.Equal(t, "payments", services[0].Name)
	assert.Equal(t, "ledger", services[1].Name)
	assert.Equal(t, "notify", services[2].Name)
}

func TestStatsIdempotent(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddRoute(types.Route{Name: "submit", Service: "payments", Paths: []string{"/api/payments"}})
	require.NoError(t, err)
	_, err = store.AddPlugin(types.Plugin{Name: PluginCORS, Enabled: true})
	require.NoError(t, err)

	first := store.Stats()
	second := store.Stats()
	assert.Equal(t, types.GatewayStats{Services: 1, Routes: 1, Plugins: 1}, first)
	assert.Equal(t, first, second)
}
