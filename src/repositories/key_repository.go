package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKeyRepository is the pgx-backed KeyRepository
type PostgresKeyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresKeyRepository creates a key repository over a connection pool
func NewPostgresKeyRepository(pool *pgxpool.Pool) *PostgresKeyRepository {
	return &PostgresKeyRepository{pool: pool}
}

const keyColumns = `id, key_value, owner_id, description, courier_code, warehouse_id,
	permissions, is_active, expires_at, usage_count, last_used_at,
	rate_per_minute, rate_per_hour, rate_per_day, created_at, updated_at`

func scanKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	var perMinute, perHour, perDay *int
	err := row.Scan(
		&k.ID, &k.KeyValue, &k.OwnerID, &k.Description,
		&k.Scope.CourierCode, &k.Scope.WarehouseID,
		&k.Permissions, &k.IsActive, &k.ExpiresAt, &k.UsageCount, &k.LastUsedAt,
		&perMinute, &perHour, &perDay, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if perMinute != nil || perHour != nil || perDay != nil {
		k.RateLimit = &models.RateLimitPolicy{}
		if perMinute != nil {
			k.RateLimit.PerMinute = *perMinute
		}
		if perHour != nil {
			k.RateLimit.PerHour = *perHour
		}
		if perDay != nil {
			k.RateLimit.PerDay = *perDay
		}
	}
	return &k, nil
}

func rateColumns(k *models.APIKey) (perMinute, perHour, perDay *int) {
	if k.RateLimit == nil {
		return nil, nil, nil
	}
	return &k.RateLimit.PerMinute, &k.RateLimit.PerHour, &k.RateLimit.PerDay
}

// Create persists a new key record
func (r *PostgresKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	perMinute, perHour, perDay := rateColumns(key)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (
			id, key_value, owner_id, description, courier_code, warehouse_id,
			permissions, is_active, expires_at, usage_count,
			rate_per_minute, rate_per_hour, rate_per_day, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, $13, $13)
	`, key.ID, key.KeyValue, key.OwnerID, key.Description,
		key.Scope.CourierCode, key.Scope.WarehouseID,
		key.Permissions, key.IsActive, key.ExpiresAt,
		perMinute, perHour, perDay, key.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// GetByValue looks up a key by its exact raw value
func (r *PostgresKeyRepository) GetByValue(ctx context.Context, keyValue string) (*models.APIKey, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE key_value = $1`, keyValue)
	k, err := scanKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query api key: %w", err)
	}
	return k, nil
}

// GetByID looks up a key by id
func (r *PostgresKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE id = $1`, id)
	k, err := scanKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query api key: %w", err)
	}
	return k, nil
}

// List returns records matching the filter, newest first
func (r *PostgresKeyRepository) List(ctx context.Context, filter KeyFilter) ([]*models.APIKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE 1=1`
	args := []interface{}{}
	if filter.CourierCode != nil {
		args = append(args, *filter.CourierCode)
		query += fmt.Sprintf(" AND courier_code = $%d", len(args))
	}
	if filter.WarehouseID != nil {
		args = append(args, *filter.WarehouseID)
		query += fmt.Sprintf(" AND warehouse_id = $%d", len(args))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SetActive flips is_active and refreshes updated_at
func (r *PostgresKeyRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.APIKey, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE api_keys SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+keyColumns, id, active)
	k, err := scanKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update key status: %w", err)
	}
	return k, nil
}

// Delete permanently removes the record
func (r *PostgresKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps usage_count in place. The increment is a single
// UPDATE so concurrent requests on the same key never lose a count.
func (r *PostgresKeyRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE api_keys SET usage_count = usage_count + 1, last_used_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to update key usage stats: %w", err)
	}
	return nil
}

// CountActive returns the number of active keys
func (r *PostgresKeyRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE is_active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active keys: %w", err)
	}
	return count, nil
}

var _ KeyRepository = (*PostgresKeyRepository)(nil)
