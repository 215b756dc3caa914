package types

import "time"

// Service is one configured upstream the gateway can forward to.
type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Route maps incoming requests onto a service. Paths are glob patterns;
// an empty method list matches every method.
type Route struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"`
	Methods   []string  `json:"methods,omitempty"`
	Paths     []string  `json:"paths"`
	StripPath bool      `json:"strip_path"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Plugin is a named middleware attachment. An empty Route scope applies
// the plugin globally.
type Plugin struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Route     string                 `json:"route,omitempty"`
	Enabled   bool                   `json:"enabled"`
	Config    map[string]interface{} `json:"config,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// GatewayStats counts the configured records.
type GatewayStats struct {
	Services int `json:"services"`
	Routes   int `json:"routes"`
	Plugins  int `json:"plugins"`
}
