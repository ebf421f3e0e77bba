//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"thoughtgraph/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideGraphRepository,
	ProvideMetrics,
	ProvideTracerProvider,
	ProvideInMemoryCache,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned
// cleanup flushes the tracer and the logger.
func InitializeContainer(cfg *config.Config, path StorePath) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
