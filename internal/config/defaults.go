package config

import "github.com/leapstack-labs/treegrid/internal/state"

// Default configuration values.
const (
	DefaultStoreType = "memory"
	DefaultPageSize  = 20
	DefaultSeedFile  = "people.yaml"
)

// ApplyDefaults applies default values to a ProjectConfig.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	ApplyStoreDefaults(c.Store)
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

// ApplyStoreDefaults applies default values based on the store type.
func ApplyStoreDefaults(s *StoreConfig) {
	if s == nil {
		return
	}
	if s.Type == "" {
		s.Type = DefaultStoreType
	}
	switch s.Type {
	case "sqlite":
		if s.Path == "" {
			s.Path = state.DefaultSQLitePath
		}
	case "postgres":
		if s.Host == "" {
			s.Host = "localhost"
		}
		if s.Port == 0 {
			s.Port = 5432
		}
	}
}
