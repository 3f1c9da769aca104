// Package config provides shared configuration types for treegrid.
// It is decoupled from CLI concerns so the engine and UI server can load
// project configuration without cobra.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/treegrid/internal/loader"
	"github.com/leapstack-labs/treegrid/internal/state"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// StoreConfig is an alias for the shared store configuration.
type StoreConfig = core.StoreConfig

// SeedConfig names the seed file and the keys its entries use.
type SeedConfig struct {
	Path         string `koanf:"path"`
	IDKey        string `koanf:"id_key"`
	ParentKey    string `koanf:"parent_key"`
	ContainerKey string `koanf:"container_key"`
}

// Keys returns the loader keys, falling back to loader defaults.
func (s SeedConfig) Keys() loader.Keys {
	return loader.Keys{ID: s.IDKey, Parent: s.ParentKey, Container: s.ContainerKey}
}

// PolicyConfig points at an optional Starlark drop policy.
type PolicyConfig struct {
	Script string `koanf:"script"`
}

// ProjectConfig holds the configuration needed to open a data source.
// The CLI config is a superset.
type ProjectConfig struct {
	Store    *StoreConfig `koanf:"store"`
	Seed     SeedConfig   `koanf:"seed"`
	Policy   PolicyConfig `koanf:"policy"`
	PageSize int          `koanf:"page_size"`
}

// ValidateStore checks that the store type is registered and complete.
// It uses the store registry as the source of truth for available types.
func ValidateStore(s *StoreConfig) error {
	if s == nil {
		return fmt.Errorf("store configuration is required")
	}
	if s.Type == "" {
		return fmt.Errorf("store type is required")
	}
	if !state.IsRegistered(strings.ToLower(s.Type)) {
		return &state.UnknownStoreError{
			Type:      s.Type,
			Available: state.ListStores(),
		}
	}
	if s.Type == "postgres" && s.Database == "" {
		return fmt.Errorf("store.database is required for postgres")
	}
	return nil
}
