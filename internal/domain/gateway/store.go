package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/utils"
)

// Known plugin names. Anything else in configuration is a typo, not an
// extension point.
const (
	PluginCORS      = "cors"
	PluginRateLimit = "rate-limit"
	PluginTracing   = "tracing"
)

var (
	ErrServiceExists   = errors.New("service already configured")
	ErrServiceNotFound = errors.New("service not found")
	ErrRouteExists     = errors.New("route already configured")
	ErrRouteNotFound   = errors.New("route not found")
	ErrPluginExists    = errors.New("plugin already configured")
	ErrUnknownPlugin   = errors.New("unknown plugin")
)

func knownPlugin(name string) bool {
	switch name {
	case PluginCORS, PluginRateLimit, PluginTracing:
		return true
	}
	return false
}

// Store holds the gateway's configured services, routes, and plugins.
// Records are read-only at request time; mutation happens through the
// explicit add operations on the admin surface. Each gateway instance
// owns its store, so independent instances never share state.
type Store struct {
	mu       sync.RWMutex
	services map[string]types.Service
	routes   map[string]types.Route
	plugins  map[string]types.Plugin

	// insertion order doubles as route match priority
	serviceOrder []string
	routeOrder   []string
	pluginOrder  []string
}

// NewStore creates an empty configuration store.
func NewStore() *Store {
	return &Store{
		services: make(map[string]types.Service),
		routes:   make(map[string]types.Route),
		plugins:  make(map[string]types.Plugin),
	}
}

// AddService registers an upstream. The name must be unique and the URL
// absolute.
func (s *Store) AddService(name, rawURL string, tags []string) (types.Service, error) {
	if err := utils.ValidateName(name, "service name"); err != nil {
		return types.Service{}, err
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return types.Service{}, fmt.Errorf("service %s: url must be absolute, got %q", name, rawURL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[name]; exists {
		return types.Service{}, fmt.Errorf("%w: %s", ErrServiceExists, name)
	}

	svc := types.Service{
		ID:        id.NewServiceID().String(),
		Name:      name,
		URL:       strings.TrimRight(rawURL, "/"),
		Tags:      tags,
		CreatedAt: time.Now(),
	}
	s.services[name] = svc
	s.serviceOrder = append(s.serviceOrder, name)
	return svc, nil
}

// AddRoute registers a route. The referenced service must already be
// configured and every path must be a valid glob pattern.
func (s *Store) AddRoute(route types.Route) (types.Route, error) {
	if err := utils.ValidateName(route.Name, "route name"); err != nil {
		return types.Route{}, err
	}
	if len(route.Paths) == 0 {
		return types.Route{}, fmt.Errorf("route %s: at least one path required", route.Name)
	}
	for _, p := range route.Paths {
		if !strings.HasPrefix(p, "/") {
			return types.Route{}, fmt.Errorf("route %s: path %q must start with /", route.Name, p)
		}
		if !doublestar.ValidatePattern(p) {
			return types.Route{}, fmt.Errorf("route %s: invalid path pattern %q", route.Name, p)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.routes[route.Name]; exists {
		return types.Route{}, fmt.Errorf("%w: %s", ErrRouteExists, route.Name)
	}
	if _, ok := s.services[route.Service]; !ok {
		return types.Route{}, fmt.Errorf("%w: %s (referenced by route %s)", ErrServiceNotFound, route.Service, route.Name)
	}

	route.ID = id.NewRouteID().String()
	route.CreatedAt = time.Now()
	for i, m := range route.Methods {
		route.Methods[i] = strings.ToUpper(m)
	}

	s.routes[route.Name] = route
	s.routeOrder = append(s.routeOrder, route.Name)
	return route, nil
}

// AddPlugin registers a plugin attachment. The plugin name must be one
// of the known set; a route scope, when present, must reference a
// configured route.
func (s *Store) AddPlugin(plugin types.Plugin) (types.Plugin, error) {
	if !knownPlugin(plugin.Name) {
		return types.Plugin{}, fmt.Errorf("%w: %s", ErrUnknownPlugin, plugin.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := plugin.Name + "@" + plugin.Route
	if _, exists := s.plugins[key]; exists {
		return types.Plugin{}, fmt.Errorf("%w: %s", ErrPluginExists, key)
	}
	if plugin.Route != "" {
		if _, ok := s.routes[plugin.Route]; !ok {
			return types.Plugin{}, fmt.Errorf("%w: %s (referenced by plugin %s)", ErrRouteNotFound, plugin.Route, plugin.Name)
		}
	}

	plugin.ID = id.NewPluginID().String()
	plugin.CreatedAt = time.Now()

	s.plugins[key] = plugin
	s.pluginOrder = append(s.pluginOrder, key)
	return plugin, nil
}

// Service looks up one upstream by name.
func (s *Store) Service(name string) (types.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[name]
	return svc, ok
}

// Services returns the configured upstreams in configuration order.
func (s *Store) Services() []types.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Service, 0, len(s.serviceOrder))
	for _, name := range s.serviceOrder {
		out = append(out, s.services[name])
	}
	return out
}

// Routes returns the configured routes in configuration order.
func (s *Store) Routes() []types.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Route, 0, len(s.routeOrder))
	for _, name := range s.routeOrder {
		out = append(out, s.routes[name])
	}
	return out
}

// Plugins returns the configured plugins in configuration order.
func (s *Store) Plugins() []types.Plugin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Plugin, 0, len(s.pluginOrder))
	for _, key := range s.pluginOrder {
		out = append(out, s.plugins[key])
	}
	return out
}

// GlobalPlugins returns the enabled plugins with no route scope.
func (s *Store) GlobalPlugins() []types.Plugin {
	var out []types.Plugin
	for _, p := range s.Plugins() {
		if p.Enabled && p.Route == "" {
			out = append(out, p)
		}
	}
	return out
}

// Match finds the first route whose method and path accept the request,
// in configuration order, together with its upstream.
func (s *Store) Match(method, path string) (types.Route, types.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range s.routeOrder {
		route := s.routes[name]
		if !methodAllowed(route.Methods, method) {
			continue
		}
		for _, pattern := range route.Paths {
			if matched, err := doublestar.Match(pattern, path); err == nil && matched {
				return route, s.services[route.Service], true
			}
		}
	}
	return types.Route{}, types.Service{}, false
}

// Stats counts the configured records.
func (s *Store) Stats() types.GatewayStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return types.GatewayStats{
		Services: len(s.services),
		Routes:   len(s.routes),
		Plugins:  len(s.plugins),
	}
}

func methodAllowed(methods []string, method string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
