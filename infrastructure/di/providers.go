package di

import (
	"context"
	"time"

	"go.uber.org/zap"

	cbus "thoughtgraph/application/commands/bus"
	commands_handlers "thoughtgraph/application/commands/handlers"
	"thoughtgraph/application/ports"
	querybus "thoughtgraph/application/queries/bus"
	queries_handlers "thoughtgraph/application/queries/handlers"
	domainconfig "thoughtgraph/domain/config"
	"thoughtgraph/infrastructure/config"
	"thoughtgraph/infrastructure/persistence/filestore"
	"thoughtgraph/pkg/observability"
)

// MetricsNamespace prefixes every metric name
const MetricsNamespace = "thoughtgraph"

// ProvideLogger creates a new logger instance writing to stderr
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zapConfig zap.Config

	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.DisableStacktrace = true
	}

	// Set log level based on configuration
	switch {
	case cfg.Verbose:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case cfg.LogLevel == "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case cfg.LogLevel == "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case cfg.LogLevel == "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		// Sync reports EINVAL for terminals; there is nothing to recover.
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// ProvideDomainConfig derives the business rules from the app config
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideGraphRepository creates the file-backed repository
func ProvideGraphRepository(path StorePath, logger *zap.Logger) *filestore.GraphRepository {
	return filestore.NewGraphRepository(string(path), logger)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics(MetricsNamespace)
}

// ProvideTracerProvider creates a tracer provider. Spans are logged at
// debug level when tracing is enabled and dropped otherwise.
func ProvideTracerProvider(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func()) {
	tp := observability.NewNoopTracerProvider()
	if cfg.EnableTracing {
		tp = observability.NewLoggingTracerProvider(logger)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup
}

// ProvideInMemoryCache creates the query result cache
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	cfg *config.Config,
	tp *observability.TracerProvider,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*cbus.CommandBus, error) {
	middlewares := []cbus.Middleware{cbus.TracingMiddleware(tp.Tracer())}
	if cfg.EnableMetrics {
		middlewares = append(middlewares, cbus.MetricsMiddleware(metrics))
	}
	middlewares = append(middlewares,
		cbus.LoggingMiddleware(logger),
		cbus.InvariantMiddleware(),
		cbus.EventsMiddleware(),
	)

	commandBus := cbus.NewCommandBus(middlewares...)
	if err := commands_handlers.RegisterAll(commandBus, logger); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	cfg *config.Config,
	tp *observability.TracerProvider,
	metrics *observability.Metrics,
	cache ports.Cache,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	middlewares := []querybus.Middleware{querybus.NewTracingMiddleware(tp.Tracer())}

	var hits querybus.CacheMetrics
	if cfg.EnableMetrics {
		middlewares = append(middlewares, querybus.NewMetricsMiddleware(metrics))
		hits = metrics
	}
	middlewares = append(middlewares, querybus.NewLoggingMiddleware(logger))
	if cfg.QueryCacheTTL > 0 {
		middlewares = append(middlewares, querybus.NewCachingMiddleware(cache, cfg.QueryCacheTTL, hits))
	}

	queryBus := querybus.NewQueryBus(middlewares...)
	if err := queries_handlers.RegisterAll(queryBus, logger); err != nil {
		return nil, err
	}
	return queryBus, nil
}
