package core

import "context"

// Store is the backing store behind a data source. It supplies the initial
// forest and persists committed moves.
type Store interface {
	// LoadRecords returns every record in insertion order.
	LoadRecords(ctx context.Context) ([]Record, error)
	// ReplaceRecords replaces the stored forest in one transaction.
	ReplaceRecords(ctx context.Context, records []Record) error
	// CommitMove updates the record's parent and journals the event in one transaction.
	CommitMove(ctx context.Context, ev MoveEvent) error
	// ListMoves returns up to limit journaled moves, newest first.
	ListMoves(ctx context.Context, limit int) ([]MoveEvent, error)
	Close() error
}

// StoreConfig holds backing store configuration.
type StoreConfig struct {
	Type string `koanf:"type"` // memory, sqlite, postgres

	// File-based stores (SQLite); ":memory:" for an in-memory database
	Path string `koanf:"path"`

	// Network stores
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}
