package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/treegrid/pkg/core"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultSQLitePath is used when store.path is empty.
const DefaultSQLitePath = ".treegrid/treegrid.db"

func init() {
	Register("sqlite", func(ctx context.Context, cfg core.StoreConfig, logger *slog.Logger) (core.Store, error) {
		path := cfg.Path
		if path == "" {
			path = DefaultSQLitePath
		}
		return OpenSQLite(ctx, path, logger)
	})
}

// OpenSQLite opens (creating if needed) and migrates a SQLite store.
// Use ":memory:" for an in-memory database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := Migrate(db, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Debug("sqlite store opened", "path", path)
	}
	return newSQLStore(db, "sqlite", logger), nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return nil
}
