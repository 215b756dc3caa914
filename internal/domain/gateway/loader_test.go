package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "gateway.yaml", `
services:
  - name: payments
    url: http://payments.internal:8080
    tags: [core]
    routes:
      - name: submit
        methods: [POST]
        paths: ["/api/payments/**"]
        strip_path: true
plugins:
  - name: cors
  - name: rate-limit
    route: submit
    config:
      requests_per_minute: 120
`)

	store := NewStore()
	result, err := NewLoader(store, logging.NewNop()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Loaded)
	assert.Equal(t, 0, result.Failed)

	route, svc, ok := store.Match("POST", "/api/payments/submit")
	require.True(t, ok)
	assert.Equal(t, "submit", route.Name)
	assert.True(t, route.StripPath)
	assert.Equal(t, "http://payments.internal:8080", svc.URL)

	global := store.GlobalPlugins()
	require.Len(t, global, 1)
	assert.Equal(t, PluginCORS, global[0].Name)
	assert.True(t, global[0].Enabled, "enabled defaults to true")
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "gateway.toml", `
[[services]]
name = "payments"
url = "http://payments.internal:8080"

[[services.routes]]
name = "submit"
paths = ["/api/payments/**"]

[[plugins]]
name = "tracing"
enabled = false
`)

	store := NewStore()
	result, err := NewLoader(store, logging.NewNop()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Loaded)
	assert.Equal(t, 0, result.Failed)

	plugins := store.Plugins()
	require.Len(t, plugins, 1)
	assert.False(t, plugins[0].Enabled)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "gateway.json", `{
  "services": [
    {
      "name": "payments",
      "url": "http://payments.internal:8080",
      "routes": [{"name": "submit", "paths": ["/api/payments/**"]}]
    }
  ]
}`)

	store := NewStore()
	result, err := NewLoader(store, logging.NewNop()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Loaded)
	_, _, ok := store.Match("GET", "/api/payments/status/abc")
	assert.True(t, ok)
}

func TestLoadSkipsBadRecords(t *testing.T) {
	path := writeConfig(t, "gateway.yaml", `
services:
  - name: broken
    url: not-a-url
    routes:
      - name: orphan
        paths: ["/api/broken"]
  - name: payments
    url: http://payments.internal:8080
`)

	store := NewStore()
	result, err := NewLoader(store, logging.NewNop()).Load(path)
	require.NoError(t, err, "bad records are skipped, not fatal")

	// broken service and its route both fail, good service still loads
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 2, result.Failed)

	_, ok := store.Service("payments")
	assert.True(t, ok)
	_, ok = store.Service("broken")
	assert.False(t, ok)
}

func TestLoadChecksumDeterministic(t *testing.T) {
	content := `
services:
  - name: payments
    url: http://payments.internal:8080
`
	path := writeConfig(t, "gateway.yaml", content)

	first, err := NewLoader(NewStore(), logging.NewNop()).Load(path)
	require.NoError(t, err)
	second, err := NewLoader(NewStore(), logging.NewNop()).Load(path)
	require.NoError(t, err)

	assert.Len(t, first.Checksum, 64)
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "gateway.ini", "[services]\n")

	_, err := NewLoader(NewStore(), logging.NewNop()).Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(NewStore(), logging.NewNop()).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "gateway.json", `{"services": [`)

	_, err := NewLoader(NewStore(), logging.NewNop()).Load(path)
	require.Error(t, err)
}
