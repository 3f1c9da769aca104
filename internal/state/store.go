// Package state provides the backing stores behind the tree data source.
// Stores register a factory by type name; NewStore picks one from config.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Factory opens a store from configuration.
type Factory func(ctx context.Context, cfg core.StoreConfig, logger *slog.Logger) (core.Store, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a store factory to the registry.
// Called by store implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a store factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewStore opens the store named by cfg.Type.
// The logger is passed to the store (nil uses discard logger).
func NewStore(ctx context.Context, cfg core.StoreConfig, logger *slog.Logger) (core.Store, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("store type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownStoreError{
			Type:      cfg.Type,
			Available: ListStores(),
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(ctx, cfg, logger)
}

// ListStores returns all registered store types (sorted).
func ListStores() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a store type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownStoreError is returned when an unknown store type is requested.
type UnknownStoreError struct {
	Type      string
	Available []string
}

func (e *UnknownStoreError) Error() string {
	return fmt.Sprintf("unknown store type %q\nAvailable stores: %v\nHint: Check your store.type in treegrid.yaml", e.Type, e.Available)
}
