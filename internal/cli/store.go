package cli

import (
	"fmt"
	"log/slog"

	"github.com/beffroi/beffroi/internal/config"
	"github.com/beffroi/beffroi/internal/store"
)

// connect opens the configured database.
func connect(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return store.Open(store.DialectSQLite, cfg.Database.Path, logger)
	case config.DriverPostgres:
		return store.Open(store.DialectPostgres, cfg.Database.DSN, logger)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
