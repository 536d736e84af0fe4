package core

import (
	"fmt"
	"io"

	"github.com/shubh1021/AgriTrace/internal/infra/persistence/memory"
	"github.com/shubh1021/AgriTrace/internal/infra/persistence/postgres"
	"github.com/shubh1021/AgriTrace/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Backend defaults applied when the matching StorageConfig field is empty.
const (
	DefaultSQLitePath  = sqlite.DefaultPath
	DefaultPostgresDSN = postgres.DefaultDSN
)

// StorageConfig selects and configures a backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

type (
	// MemoryStore is the per-batch locked in-memory store.
	MemoryStore = memory.Store
	// SQLiteStore snapshots the memory store into SQLite after every commit.
	SQLiteStore = sqlite.Store
	// PostgresStore snapshots the memory store into Postgres after every commit.
	PostgresStore = postgres.Store
)

// NewMemoryStore constructs an in-memory store bound to engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	return memory.NewStore(engine)
}

// NewSQLiteStore opens (or creates) the SQLite snapshot store at path.
func NewSQLiteStore(path string, engine *RulesEngine) (*SQLiteStore, error) {
	return sqlite.NewStore(path, engine)
}

// NewPostgresStore connects to the Postgres snapshot store at dsn.
func NewPostgresStore(dsn string, engine *RulesEngine) (*PostgresStore, error) {
	return postgres.NewStore(dsn, engine)
}

// OpenPersistentStore selects a backend from cfg, defaulting to sqlite. The
// returned closer releases database handles and is never nil.
func OpenPersistentStore(cfg StorageConfig, engine *RulesEngine) (PersistentStore, io.Closer, error) {
	switch cfg.Driver {
	case StorageMemory:
		return NewMemoryStore(engine), nopCloser{}, nil
	case "", StorageSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case StoragePostgres:
		s, err := NewPostgresStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
