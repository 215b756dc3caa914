package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/gateway"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

// AddServiceRequest is the admin payload for registering an upstream
type AddServiceRequest struct {
	Name string   `json:"name" binding:"required"`
	URL  string   `json:"url" binding:"required"`
	Tags []string `json:"tags"`
}

// AddRouteRequest is the admin payload for registering a route
type AddRouteRequest struct {
	Name      string   `json:"name" binding:"required"`
	Service   string   `json:"service" binding:"required"`
	Methods   []string `json:"methods"`
	Paths     []string `json:"paths" binding:"required"`
	StripPath bool     `json:"strip_path"`
	Tags      []string `json:"tags"`
}

// AddPluginRequest is the admin payload for attaching a plugin
type AddPluginRequest struct {
	Name    string                 `json:"name" binding:"required"`
	Route   string                 `json:"route"`
	Enabled *bool                  `json:"enabled"`
	Config  map[string]interface{} `json:"config"`
}

// ListServices lists the configured upstream services
func (h *Handlers) ListServices(c *gin.Context) {
	defer h.tracked.TrackAdminOperation("list_services")()

	c.JSON(http.StatusOK, gin.H{
		"services": h.store.Services(),
		"stats":    h.store.Stats(),
	})
}

// AddService registers an upstream service
func (h *Handlers) AddService(c *gin.Context) {
	var req AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defer h.tracked.TrackAdminOperation("add_service")()

	svc, err := h.store.AddService(req.Name, req.URL, req.Tags)
	if err != nil {
		c.JSON(adminStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.syncGatewayGauge()
	c.JSON(http.StatusCreated, gin.H{"service": svc})
}

// ListRoutes lists the configured routes
func (h *Handlers) ListRoutes(c *gin.Context) {
	defer h.tracked.TrackAdminOperation("list_routes")()

	c.JSON(http.StatusOK, gin.H{
		"routes": h.store.Routes(),
		"stats":  h.store.Stats(),
	})
}

// AddRoute registers a route
func (h *Handlers) AddRoute(c *gin.Context) {
	var req AddRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defer h.tracked.TrackAdminOperation("add_route")()

	route, err := h.store.AddRoute(types.Route{
		Name:      req.Name,
		Service:   req.Service,
		Methods:   req.Methods,
		Paths:     req.Paths,
		StripPath: req.StripPath,
		Tags:      req.Tags,
	})
	if err != nil {
		c.JSON(adminStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.syncGatewayGauge()
	c.JSON(http.StatusCreated, gin.H{"route": route})
}

// ListPlugins lists the configured plugins
func (h *Handlers) ListPlugins(c *gin.Context) {
	defer h.tracked.TrackAdminOperation("list_plugins")()

	c.JSON(http.StatusOK, gin.H{
		"plugins": h.store.Plugins(),
		"stats":   h.store.Stats(),
	})
}

// AddPlugin attaches a plugin globally or to one route
func (h *Handlers) AddPlugin(c *gin.Context) {
	var req AddPluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defer h.tracked.TrackAdminOperation("add_plugin")()

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	plugin, err := h.store.AddPlugin(types.Plugin{
		Name:    req.Name,
		Route:   req.Route,
		Enabled: enabled,
		Config:  req.Config,
	})
	if err != nil {
		c.JSON(adminStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.syncGatewayGauge()
	c.JSON(http.StatusCreated, gin.H{"plugin": plugin})
}

// adminStatus maps store errors onto HTTP codes: duplicates conflict,
// missing references 404, everything else is a bad request.
func adminStatus(err error) int {
	switch {
	case errors.Is(err, gateway.ErrServiceExists),
		errors.Is(err, gateway.ErrRouteExists),
		errors.Is(err, gateway.ErrPluginExists):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrServiceNotFound),
		errors.Is(err, gateway.ErrRouteNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (h *Handlers) syncGatewayGauge() {
	if h.metrics == nil {
		return
	}
	stats := h.store.Stats()
	h.metrics.SetGatewayConfig(stats.Services, stats.Routes, stats.Plugins)
}
