package handlers

import (
	"go.uber.org/zap"

	"thoughtgraph/application/queries"
	"thoughtgraph/application/queries/bus"
)

// RegisterAll wires every query to its handler on b
func RegisterAll(b *bus.QueryBus, logger *zap.Logger) error {
	lookups := NewThoughtQueryHandler(logger)

	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetThoughtQuery{}, lookups},
		{queries.ListThoughtsQuery{}, lookups},
		{queries.ListTagsQuery{}, lookups},
		{queries.IncomingQuery{}, lookups},
		{queries.OutgoingQuery{}, lookups},
		{queries.SearchQuery{}, NewSearchHandler(logger)},
		{queries.MatchQuery{}, NewMatchHandler(logger)},
		{queries.GetGraphDataQuery{}, NewGetGraphDataHandler(logger)},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}
