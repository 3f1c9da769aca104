package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/leapstack-labs/treegrid/pkg/core"
)

func init() {
	Register("postgres", func(ctx context.Context, cfg core.StoreConfig, logger *slog.Logger) (core.Store, error) {
		return OpenPostgres(ctx, cfg, logger)
	})
}

// PostgresDSN builds a connection URL from store configuration.
// Options become query parameters (e.g. sslmode).
func PostgresDSN(cfg core.StoreConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + strconv.Itoa(port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}

	if len(cfg.Options) > 0 {
		keys := make([]string, 0, len(cfg.Options))
		for k := range cfg.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		q := url.Values{}
		for _, k := range keys {
			q.Set(k, cfg.Options[k])
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// OpenPostgres connects to and migrates a PostgreSQL store.
func OpenPostgres(ctx context.Context, cfg core.StoreConfig, logger *slog.Logger) (*SQLStore, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("postgres store requires store.database")
	}

	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	if err := Migrate(db, "postgres"); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Debug("postgres store opened", "host", cfg.Host, "database", cfg.Database)
	}
	return NewPostgresStore(db, logger), nil
}

// NewPostgresStore wraps an already migrated PostgreSQL connection.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *SQLStore {
	return newSQLStore(db, "postgres", logger)
}
