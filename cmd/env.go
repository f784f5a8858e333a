package main

import (
	"context"

	"github.com/sells-group/geohash-cli/internal/config"
	"github.com/sells-group/geohash-cli/internal/enrich"
	"github.com/sells-group/geohash-cli/internal/store"
)

// Command-line overrides for the enrichment configuration, registered on both
// the run and serve commands.
var (
	flagMode      string
	flagStrategy  string
	flagFormat    string
	flagPrecision int
)

// runEnv holds the router and optional store shared by the run and serve
// commands.
type runEnv struct {
	Router *enrich.Router
	Store  store.Store // nil when store.driver is "off"
}

// Close releases resources held by the environment.
func (e *runEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv applies command-line overrides, validates the configuration, and
// builds the router and store. Callers should defer env.Close().
func initEnv(ctx context.Context) (*runEnv, error) {
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	return &runEnv{
		Router: cfg.Enrich.Router(),
		Store:  st,
	}, nil
}

// initStore opens the configured run-history store, or returns nil when
// persistence is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "off":
		return nil, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
}

func applyOverrides(c *config.Config) {
	if flagMode != "" {
		c.Enrich.Mode = flagMode
	}
	if flagStrategy != "" {
		c.Enrich.RoutingStrategy = flagStrategy
	}
	if flagFormat != "" {
		c.Enrich.GeohashFormat = flagFormat
	}
	if flagPrecision > 0 {
		c.Enrich.Precision = flagPrecision
	}
}
