package gateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/utils"
)

// fileConfig is the declarative configuration schema. Routes nest under
// the service they forward to.
type fileConfig struct {
	Services []serviceSpec `json:"services" yaml:"services" toml:"services"`
	Plugins  []pluginSpec  `json:"plugins" yaml:"plugins" toml:"plugins"`
}

type serviceSpec struct {
	Name   string      `json:"name" yaml:"name" toml:"name"`
	URL    string      `json:"url" yaml:"url" toml:"url"`
	Tags   []string    `json:"tags" yaml:"tags" toml:"tags"`
	Routes []routeSpec `json:"routes" yaml:"routes" toml:"routes"`
}

type routeSpec struct {
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Methods   []string `json:"methods" yaml:"methods" toml:"methods"`
	Paths     []string `json:"paths" yaml:"paths" toml:"paths"`
	StripPath bool     `json:"strip_path" yaml:"strip_path" toml:"strip_path"`
	Tags      []string `json:"tags" yaml:"tags" toml:"tags"`
}

type pluginSpec struct {
	Name    string                 `json:"name" yaml:"name" toml:"name"`
	Route   string                 `json:"route" yaml:"route" toml:"route"`
	Enabled *bool                  `json:"enabled" yaml:"enabled" toml:"enabled"`
	Config  map[string]interface{} `json:"config" yaml:"config" toml:"config"`
}

// LoadResult summarizes one configuration load.
type LoadResult struct {
	Loaded   int    `json:"loaded"`
	Failed   int    `json:"failed"`
	Checksum string `json:"checksum"`
}

// Loader reads declarative gateway configuration from disk into a
// Store. The format follows the file extension: .yaml/.yml, .toml, or
// .json.
type Loader struct {
	store  *Store
	logger *logging.Logger
	hasher *utils.Hasher
}

// NewLoader creates a loader targeting the given store.
func NewLoader(store *Store, logger *logging.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger,
		hasher: utils.DefaultHasher(),
	}
}

// Load reads and applies one configuration file. Parse failures abort;
// individual record failures are logged, counted, and skipped so one
// bad record never blocks the rest.
func (l *Loader) Load(path string) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read gateway config: %w", err)
	}

	cfg, err := parseConfig(path, data)
	if err != nil {
		return LoadResult{}, err
	}

	result := LoadResult{Checksum: l.hasher.Hash(data)}

	for _, spec := range cfg.Services {
		if _, err := l.store.AddService(spec.Name, spec.URL, spec.Tags); err != nil {
			l.logger.Warn("skipping service", zap.String("service", spec.Name), zap.Error(err))
			result.Failed++
		} else {
			result.Loaded++
		}

		for _, rs := range spec.Routes {
			route := types.Route{
				Name:      rs.Name,
				Service:   spec.Name,
				Methods:   rs.Methods,
				Paths:     rs.Paths,
				StripPath: rs.StripPath,
				Tags:      rs.Tags,
			}
			if _, err := l.store.AddRoute(route); err != nil {
				l.logger.Warn("skipping route", zap.String("route", rs.Name), zap.Error(err))
				result.Failed++
			} else {
				result.Loaded++
			}
		}
	}

	for _, spec := range cfg.Plugins {
		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}
		plugin := types.Plugin{
			Name:    spec.Name,
			Route:   spec.Route,
			Enabled: enabled,
			Config:  spec.Config,
		}
		if _, err := l.store.AddPlugin(plugin); err != nil {
			l.logger.Warn("skipping plugin", zap.String("plugin", spec.Name), zap.Error(err))
			result.Failed++
		} else {
			result.Loaded++
		}
	}

	l.logger.Info("gateway config loaded",
		zap.String("path", path),
		zap.Int("loaded", result.Loaded),
		zap.Int("failed", result.Failed),
		zap.String("checksum", result.Checksum),
	)
	return result, nil
}

// parseConfig decodes the raw bytes according to the file extension.
func parseConfig(path string, data []byte) (*fileConfig, error) {
	var cfg fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse YAML config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse TOML config: %w", err)
		}
	case ".json":
		if err := sonic.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	return &cfg, nil
}
