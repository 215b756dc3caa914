package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/CoinFlowHQ/coinflow/backend/internal/api/http"
	"github.com/CoinFlowHQ/coinflow/backend/internal/api/middleware"
	"github.com/CoinFlowHQ/coinflow/backend/internal/api/ws"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/broker"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/gateway"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/payments"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/pubsub"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/config"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/simulate"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/tracing"
)

// Server wraps the HTTP engine and its dependencies
type Server struct {
	engine   *gin.Engine
	store    *gateway.Store
	router   *broker.Router
	client   *pubsub.Client
	pipeline *payments.Pipeline
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing CoinFlow Gateway",
		zap.String("port", cfg.Server.Port),
		zap.String("gateway_config", cfg.Gateway.ConfigPath),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	logger.Info("Performance monitoring initialized")

	// Initialize the span pipeline
	tracer := tracing.New(cfg.Tracing.ServiceName, logger.Logger).WithMetrics(metrics)
	if cfg.Tracing.CollectorURL != "" {
		tracer.WithExporter(tracing.NewCollectorExporter(cfg.Tracing.CollectorURL))
		logger.Info("Span export to collector enabled",
			zap.String("url", cfg.Tracing.CollectorURL))
	}

	// Monitor stream receives queue activity over WebSocket
	stream := ws.NewStream(logger.WithComponent("monitor")).WithMetrics(metrics)

	// Initialize the queue router
	queues := broker.New(logger.WithComponent("broker")).
		WithDelay(simulate.NewUniform(cfg.Broker.ProcessingDelayMin, cfg.Broker.ProcessingDelayMax)).
		WithNotifier(stream).
		WithMetrics(metrics)
	if err := queues.DeclareQueues(broker.DefaultQueues()); err != nil {
		return nil, err
	}

	// Initialize the pub/sub client; Connect is asynchronous and the
	// broker dead-letters anything published before it settles
	client := pubsub.New(logger.WithComponent("pubsub")).
		WithConnectDelay(cfg.PubSub.ConnectDelay).
		WithDelivery(simulate.NewUniform(cfg.PubSub.DeliveryDelayMin, cfg.PubSub.DeliveryDelayMax)).
		WithMetrics(metrics)
	if err := client.DeclareQueues(pubsub.DefaultQueues()); err != nil {
		return nil, err
	}
	client.Connect()

	// Initialize the gateway registry, optionally from declarative config
	gatewayLogger := logger.WithComponent("gateway")
	store := gateway.NewStore()
	if cfg.Gateway.ConfigPath != "" {
		loader := gateway.NewLoader(store, gatewayLogger)
		if _, err := loader.Load(cfg.Gateway.ConfigPath); err != nil {
			logger.Warn("Gateway config load failed, continuing with empty registry",
				zap.Error(err))
		}
	}
	stats := store.Stats()
	metrics.SetGatewayConfig(stats.Services, stats.Routes, stats.Plugins)

	proxy := gateway.NewProxy(gatewayLogger).
		WithRateLimit(cfg.Gateway.UpstreamRPS).
		WithMetrics(metrics)

	// Initialize the payment pipeline and its branch consumers
	pipeline := payments.New(logger.WithComponent("payments"), queues, client).WithMetrics(metrics)
	if err := pipeline.Register(); err != nil {
		return nil, err
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	// Edge middleware; global plugins overlay the built-in defaults
	corsCfg := middleware.DefaultCORSConfig()
	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}
	rateEnabled := cfg.RateLimit.Enabled
	for _, plugin := range store.GlobalPlugins() {
		switch plugin.Name {
		case "cors":
			corsCfg = middleware.CORSFromConfig(plugin.Config)
			logger.Info("CORS plugin applied", zap.Strings("origins", corsCfg.AllowOrigins))
		case "rate-limit":
			rateCfg = middleware.RateLimitFromConfig(plugin.Config)
			rateEnabled = true
			logger.Info("Rate limit plugin applied", zap.Int("rps", rateCfg.RequestsPerSecond))
		}
	}

	engine.Use(gin.Recovery())
	gatewayLatency := simulate.NewLogNormal(
		(cfg.Gateway.LatencyMin+cfg.Gateway.LatencyMax)/2, 0.5,
		cfg.Gateway.LatencyMin, cfg.Gateway.LatencyMax)
	engine.Use(tracing.GatewayMiddleware(tracer, gatewayLatency))
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(middleware.CORS(corsCfg))
	if rateEnabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", rateCfg.RequestsPerSecond),
			zap.Int("burst", rateCfg.Burst),
		)
		engine.Use(middleware.RateLimit(rateCfg))
	}

	// Create handlers
	handlers := api.NewHandlers(logger, store, proxy, queues, client, pipeline, metrics)

	// Register routes
	engine.GET("/", handlers.Root)
	engine.GET("/health", handlers.Health)

	// Payments
	engine.POST("/api/v1/payments", handlers.SubmitPayment)

	// Gateway administration
	admin := engine.Group("/admin")
	admin.GET("/services", handlers.ListServices)
	admin.POST("/services", handlers.AddService)
	admin.GET("/routes", handlers.ListRoutes)
	admin.POST("/routes", handlers.AddRoute)
	admin.GET("/plugins", handlers.ListPlugins)
	admin.POST("/plugins", handlers.AddPlugin)

	// Monitoring surfaces
	monitor := engine.Group("/monitor")
	monitor.GET("/queues", handlers.QueueOverview)
	monitor.GET("/queues/:name/messages", handlers.QueueMessages)
	monitor.GET("/pubsub", handlers.PubSubOverview)
	monitor.GET("/audit", handlers.AuditTrail)
	monitor.GET("/overview", handlers.Overview)
	monitor.GET("/stream", stream.HandleConnection)

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Everything else is data plane: match a configured route and
	// forward to its upstream
	engine.NoRoute(func(c *gin.Context) {
		route, svc, ok := store.Match(c.Request.Method, c.Request.URL.Path)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no route configured",
				"path":  c.Request.URL.Path,
			})
			return
		}
		proxy.Forward(c.Writer, c.Request, route, svc)
	})

	logger.Info("Server initialized successfully")

	return &Server{
		engine:   engine,
		store:    store,
		router:   queues,
		client:   client,
		pipeline: pipeline,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	// Sync logger before exit
	s.logger.Sync()

	return nil
}
