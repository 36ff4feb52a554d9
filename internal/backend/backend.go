// Package backend selects and constructs the GraphStore implementation
// a running process uses, based on which connection strings Config
// carries: Postgres, then Neo4j, falling back to the in-memory store
// when neither is configured. Both cmd/ingest and cmd/query share this
// selection so they never drift on which backend a given environment
// resolves to.
package backend

import (
	"context"
	"fmt"

	"github.com/jasonaskew/docugraph/internal/config"
	"github.com/jasonaskew/docugraph/pkg/logger"
	"github.com/jasonaskew/docugraph/pkg/store"
	"github.com/jasonaskew/docugraph/pkg/store/memstore"
	"github.com/jasonaskew/docugraph/pkg/store/neo4jstore"
	"github.com/jasonaskew/docugraph/pkg/store/pgxstore"
)

// Open constructs the GraphStore named by cfg, along with a close func
// the caller must defer.
func Open(ctx context.Context, cfg config.Config) (store.GraphStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := pgxstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("backend: open postgres: %w", err)
		}
		logger.Info("using postgres graph store")
		return s, s.Close, nil
	case cfg.Neo4jURL != "":
		s, err := neo4jstore.New(ctx, cfg.Neo4jURL, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("backend: open neo4j: %w", err)
		}
		logger.Info("using neo4j graph store")
		return s, func() { _ = s.Close(ctx) }, nil
	default:
		logger.Info("using in-memory graph store")
		return memstore.New(), func() {}, nil
	}
}
