package domain

import (
	"context"
	"time"
)

// Repository defines the interface for algorithm persistence.
// All methods require merchantID for strict multi-tenancy isolation.
type Repository interface {
	// Algorithm operations
	SaveAlgorithm(ctx context.Context, merchantID string, record *AlgorithmRecord) error
	GetAlgorithm(ctx context.Context, merchantID string, id string) (*AlgorithmRecord, error)
	ListAlgorithms(ctx context.Context, merchantID string, kind AlgorithmKind) ([]*AlgorithmRecord, error)

	// ActivateAlgorithm marks one algorithm active for its kind and
	// deactivates the merchant's previous active algorithm of that kind.
	ActivateAlgorithm(ctx context.Context, merchantID string, id string) error
	GetActiveAlgorithm(ctx context.Context, merchantID string, kind AlgorithmKind) (*AlgorithmRecord, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
