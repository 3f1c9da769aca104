// Package engine wires a backing store, seed loader and drop policy into a
// paged tree data source.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/internal/loader"
	"github.com/leapstack-labs/treegrid/internal/policy"
	"github.com/leapstack-labs/treegrid/internal/state"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Config holds engine configuration.
type Config struct {
	// Store selects and configures the backing store
	Store core.StoreConfig
	// SeedPath is a seed file loaded into an empty store (optional)
	SeedPath string
	// SeedKeys names the structural keys of seed entries
	SeedKeys loader.Keys
	// PolicyScript is a Starlark drop policy (optional)
	PolicyScript string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine owns the store and the data source built on top of it.
type Engine struct {
	cfg    Config
	store  core.Store
	source *forest.Source
	policy *policy.Policy
	logger *slog.Logger

	// mu serialises Move, Reload and Replace so the store and the forest
	// change together
	mu sync.Mutex
}

// New opens the store, loads the forest and installs the policy.
// An empty store is seeded from cfg.SeedPath when one is configured.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine", "store", cfg.Store.Type, "seed", cfg.SeedPath)

	store, err := state.NewStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	e := &Engine{cfg: cfg, store: store, logger: logger}

	opts := []forest.Option{
		forest.WithLogger(logger),
		forest.WithCommitter(store),
	}
	if cfg.PolicyScript != "" {
		p, err := policy.LoadFile(cfg.PolicyScript, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		e.policy = p
		opts = append(opts, forest.WithPolicy(p))
	}
	e.source = forest.New(opts...)

	records, err := store.LoadRecords(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if len(records) == 0 && cfg.SeedPath != "" {
		if _, err := e.Import(ctx, cfg.SeedPath); err != nil {
			_ = store.Close()
			return nil, err
		}
		return e, nil
	}

	if err := e.source.Load(records); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("stored records are not a valid forest: %w", err)
	}
	return e, nil
}

// Source returns the data source.
func (e *Engine) Source() *forest.Source {
	return e.source
}

// Store returns the backing store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Policy returns the drop policy, or nil when none is configured.
func (e *Engine) Policy() *policy.Policy {
	return e.policy
}

// SeedPath returns the configured seed file.
func (e *Engine) SeedPath() string {
	return e.cfg.SeedPath
}

// Move reparents a record. The store is updated before the forest.
// A move never lands between a store replacement and the matching forest load.
func (e *Engine) Move(ctx context.Context, id, parent core.RecordID) (core.MoveEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source.Reparent(ctx, id, parent)
}

// Reload re-reads the seed file when one is configured, replacing the stored
// records, and otherwise reloads the forest from the store.
func (e *Engine) Reload(ctx context.Context) error {
	if e.cfg.SeedPath != "" {
		_, err := e.Import(ctx, e.cfg.SeedPath)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.store.LoadRecords(ctx)
	if err != nil {
		return err
	}
	if err := e.source.Load(records); err != nil {
		return err
	}
	e.logger.Info("forest reloaded", "records", len(records))
	return nil
}

// Import loads a seed file into the store and the forest. The file is
// validated first; an invalid file leaves both untouched.
func (e *Engine) Import(ctx context.Context, path string) (int, error) {
	records, err := loader.LoadFile(path, e.cfg.SeedKeys)
	if err != nil {
		return 0, err
	}
	if err := e.Replace(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}

	e.logger.Info("records imported", "path", path, "records", len(records))
	return len(records), nil
}

// Replace validates records and installs them in the store and the forest.
func (e *Engine) Replace(ctx context.Context, records []core.Record) error {
	if err := loader.Validate(records); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.ReplaceRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	return e.source.Load(records)
}

// History returns up to limit committed moves, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]core.MoveEvent, error) {
	return e.store.ListMoves(ctx, limit)
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}
