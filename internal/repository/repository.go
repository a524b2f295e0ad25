// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAlgorithm stores an algorithm record with merchant isolation.
// An existing record with the same ID is updated in place; activation
// state is only changed through ActivateAlgorithm.
func (r *SQLRepository) SaveAlgorithm(ctx context.Context, merchantID string, record *domain.AlgorithmRecord) error {
	if merchantID == "" {
		return fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: record ID is required", ErrInvalidInput)
	}
	if !record.Kind.IsValid() {
		return fmt.Errorf("%w: unknown algorithm kind %q", ErrInvalidInput, record.Kind)
	}
	if len(record.Document) == 0 {
		return fmt.Errorf("%w: document is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.ModifiedAt = now
	record.MerchantID = merchantID

	active := 0
	if record.Active {
		active = 1
	}

	query := `
		INSERT INTO algorithms (
			id, merchant_id, kind, name, description, document, active, created_at, modified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, merchant_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			document = excluded.document,
			modified_at = excluded.modified_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		record.ID, merchantID, string(record.Kind), record.Name, record.Description,
		string(record.Document), active, record.CreatedAt, record.ModifiedAt,
	)
	return err
}

// GetAlgorithm retrieves an algorithm record by ID with merchant isolation.
func (r *SQLRepository) GetAlgorithm(ctx context.Context, merchantID string, id string) (*domain.AlgorithmRecord, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, merchant_id, kind, name, description, document, active, created_at, modified_at
		FROM algorithms
		WHERE merchant_id = ? AND id = ?
	`

	return r.scanAlgorithm(r.db.QueryRowContext(ctx, r.rebind(query), merchantID, id))
}

// ListAlgorithms retrieves all algorithm records of a kind for a merchant.
func (r *SQLRepository) ListAlgorithms(ctx context.Context, merchantID string, kind domain.AlgorithmKind) ([]*domain.AlgorithmRecord, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, merchant_id, kind, name, description, document, active, created_at, modified_at
		FROM algorithms
		WHERE merchant_id = ? AND kind = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), merchantID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AlgorithmRecord
	for rows.Next() {
		record, err := r.scanAlgorithm(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// ActivateAlgorithm marks one algorithm active and deactivates the
// merchant's previously active algorithm of the same kind, atomically.
func (r *SQLRepository) ActivateAlgorithm(ctx context.Context, merchantID string, id string) error {
	if merchantID == "" {
		return fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var kind string
	query := `SELECT kind FROM algorithms WHERE merchant_id = ? AND id = ?`
	err = tx.QueryRowContext(ctx, r.rebind(query), merchantID, id).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	query = `UPDATE algorithms SET active = 0, modified_at = ? WHERE merchant_id = ? AND kind = ? AND active = 1`
	if _, err := tx.ExecContext(ctx, r.rebind(query), now, merchantID, kind); err != nil {
		return err
	}

	query = `UPDATE algorithms SET active = 1, modified_at = ? WHERE merchant_id = ? AND id = ?`
	if _, err := tx.ExecContext(ctx, r.rebind(query), now, merchantID, id); err != nil {
		return err
	}

	return tx.Commit()
}

// GetActiveAlgorithm retrieves the merchant's active algorithm of a kind.
func (r *SQLRepository) GetActiveAlgorithm(ctx context.Context, merchantID string, kind domain.AlgorithmKind) (*domain.AlgorithmRecord, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, merchant_id, kind, name, description, document, active, created_at, modified_at
		FROM algorithms
		WHERE merchant_id = ? AND kind = ? AND active = 1
		ORDER BY modified_at DESC
		LIMIT 1
	`

	return r.scanAlgorithm(r.db.QueryRowContext(ctx, r.rebind(query), merchantID, string(kind)))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanAlgorithm(row rowScanner) (*domain.AlgorithmRecord, error) {
	var record domain.AlgorithmRecord
	var kind, document string
	var active int

	err := row.Scan(
		&record.ID, &record.MerchantID, &kind, &record.Name, &record.Description,
		&document, &active, &record.CreatedAt, &record.ModifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	record.Kind = domain.AlgorithmKind(kind)
	record.Document = []byte(document)
	record.Active = active == 1

	return &record, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
