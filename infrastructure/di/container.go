package di

import (
	"context"

	"go.uber.org/zap"

	cbus "thoughtgraph/application/commands/bus"
	"thoughtgraph/application/ports"
	qbus "thoughtgraph/application/queries/bus"
	domainconfig "thoughtgraph/domain/config"
	"thoughtgraph/infrastructure/config"
	"thoughtgraph/infrastructure/persistence/filestore"
	"thoughtgraph/infrastructure/session"
	"thoughtgraph/pkg/observability"
)

// StorePath is the resolved location of the store file
type StorePath string

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	Repository   *filestore.GraphRepository
	CommandBus   *cbus.CommandBus
	QueryBus     *qbus.QueryBus
	Cache        ports.Cache
	Metrics      *observability.Metrics
	Tracing      *observability.TracerProvider
}

// OpenSession loads the store and returns a session over it
func (c *Container) OpenSession(ctx context.Context) (*session.Session, error) {
	return session.Open(ctx, c.Repository, c.DomainConfig, c.CommandBus, c.QueryBus, c.Logger)
}
