package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mem "scorekeeper/adapters/memory"
	redisAdapter "scorekeeper/adapters/redis"
	"scorekeeper/analytics"
	"scorekeeper/api/httpapi"
	"scorekeeper/config"
	"scorekeeper/engine"
	"scorekeeper/integrations/webhook"
	"scorekeeper/realtime"
	"scorekeeper/scorekit"
)

// ConfigPath is the optional config file given on the command line.
type ConfigPath string

// MetricsServer serves the Prometheus registry on its own listener.
// A nil *MetricsServer means metrics are disabled.
type MetricsServer struct {
	*http.Server
}

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.ScoreService
	Handler http.Handler
	Server  *http.Server
	Metrics *MetricsServer
}

func provideConfig(path ConfigPath) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(string(path))
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideRegistry(cfg *config.Config) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if cfg.Metrics.CollectSystem {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return reg
}

func provideWebhook(cfg *config.Config, logger *slog.Logger) *webhook.Sink {
	return webhook.New(cfg.Integrations.WebhookURLs,
		webhook.WithClient(&http.Client{Timeout: cfg.Integrations.WebhookTimeout}),
		webhook.WithLogger(logger),
	)
}

func provideService(cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, reg *prometheus.Registry, sink *webhook.Sink) (*engine.ScoreService, func()) {
	hooks := []analytics.Hook{analytics.NewMetrics(reg)}
	if sink.Enabled() {
		hooks = append(hooks, sink)
	}
	svc := scorekit.New(
		scorekit.WithRealtime(hub),
		scorekit.WithStorage(mem.New()),
		scorekit.WithDispatchMode(engine.ParseDispatchMode(cfg.Leaderboard.DispatchMode)),
		scorekit.WithClearAllowed(cfg.ClearAllowed()),
		scorekit.WithHooks(hooks...),
		scorekit.WithLogger(logger),
	)
	// drain queued events (webhooks, metrics) on shutdown
	return svc, svc.Close
}

// provideLimiter builds the configured request limiter, or nil when rate limiting is off.
func provideLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (httpapi.Limiter, func(), error) {
	sec := cfg.Security
	if !sec.EnableRateLimit {
		return nil, func() {}, nil
	}
	switch sec.RateLimit.Backend {
	case "redis":
		client, err := redisAdapter.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
		l := redisAdapter.NewLimiter(client, cfg.Redis.KeyPrefix, sec.RateLimit.RequestsPerMinute, time.Minute)
		logger.Info("rate limiting enabled", "backend", "redis", "addr", cfg.Redis.Addr, "rpm", sec.RateLimit.RequestsPerMinute)
		return l, func() {
			if err := l.Close(); err != nil {
				logger.Warn("closing redis client", "error", err)
			}
		}, nil
	default:
		l := httpapi.NewMemoryLimiter(sec.RateLimit.RequestsPerMinute, sec.RateLimit.BurstSize)
		runCtx, cancel := context.WithCancel(ctx)
		if sec.RateLimit.CleanupInterval > 0 {
			go l.Run(runCtx, sec.RateLimit.CleanupInterval)
		}
		logger.Info("rate limiting enabled", "backend", "memory", "rpm", sec.RateLimit.RequestsPerMinute, "burst", sec.RateLimit.BurstSize)
		return l, cancel, nil
	}
}

func provideHandler(cfg *config.Config, svc *engine.ScoreService, hub *realtime.Hub, limiter httpapi.Limiter, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	opts := httpapi.Options{
		PathPrefix:      cfg.Server.PathPrefix,
		AllowCORSOrigin: cfg.Server.CORSOrigin,
		Limiter:         limiter,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Logger:          logger,
		StartTime:       time.Now(),
	}
	if cfg.Metrics.Enabled {
		opts.Registerer = reg
	}
	return httpapi.NewMux(svc, hub, opts)
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func provideMetricsServer(cfg *config.Config, reg *prometheus.Registry) *MetricsServer {
	if !cfg.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &MetricsServer{Server: &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func convertAttributes(attrs map[string]string) []slog.Attr {
	result := make([]slog.Attr, 0, len(attrs))
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}
