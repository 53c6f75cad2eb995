package account

import (
	"database/sql"
	"fmt"
)

// Supported persistence types.
const (
	PersistencePostgres = "postgres"
	PersistenceSQLite   = "sqlite"
	PersistenceMemory   = "memory"
)

// RepositoryConfig contains configuration for creating account repositories
type RepositoryConfig struct {
	// Pool is required for PostgreSQL repositories
	Pool DBTX
	// DB is required for SQLite repositories
	DB *sql.DB
}

// NewRepository creates an account repository based on the persistence type
func NewRepository(persistenceType string, config RepositoryConfig) (Repository, error) {
	switch persistenceType {
	case PersistencePostgres, "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		return NewPostgresRepository(config.Pool), nil
	case PersistenceSQLite:
		if config.DB == nil {
			return nil, fmt.Errorf("db required for sqlite repository")
		}
		return NewSQLiteRepository(config.DB), nil
	case PersistenceMemory, "inmem":
		return NewInMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, sqlite, memory)", persistenceType)
	}
}
