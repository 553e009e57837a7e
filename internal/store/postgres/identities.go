package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facegate/internal/identity"
)

// IdentityRepository implements store.Store on PostgreSQL with a pgvector
// column. Records stay append-only: there are no UPDATE or DELETE paths.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Load returns all records in enrollment order.
func (r *IdentityRepository) Load(ctx context.Context) ([]identity.Record, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, embedding, allowed, created_at
		FROM identities
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	records := []identity.Record{}
	for rows.Next() {
		var rec identity.Record
		var vec pgvector.Vector
		if err := rows.Scan(&rec.ID, &vec, &rec.Allowed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		rec.Embedding = vec.Slice()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identities: %w", err)
	}
	return records, nil
}

// Append inserts one new record at the end of the sequence.
func (r *IdentityRepository) Append(ctx context.Context, rec identity.Record) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO identities (id, embedding, allowed, created_at)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, pgvector.NewVector(rec.Embedding), rec.Allowed, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// Count returns the total number of stored records.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Get retrieves one record by id, or nil when it does not exist.
func (r *IdentityRepository) Get(ctx context.Context, id string) (*identity.Record, error) {
	var rec identity.Record
	var vec pgvector.Vector
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, embedding, allowed, created_at
		FROM identities
		WHERE id = $1
	`, id).Scan(&rec.ID, &vec, &rec.Allowed, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}
	rec.Embedding = vec.Slice()
	return &rec, nil
}
