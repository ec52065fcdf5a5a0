package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"saferide/internal/repository"
)

// ConfigRepository is a PostgreSQL implementation of repository.ConfigRepository.
type ConfigRepository struct {
	q Querier
}

// GetValue retrieves the value for a configuration key.
func (r *ConfigRepository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.q.QueryRowContext(ctx, `SELECT value FROM config WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// GetValues retrieves the listed keys in a single statement, so the
// result never mixes values from two configurations.
func (r *ConfigRepository) GetValues(ctx context.Context, keys []string) (map[string]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT key, value FROM config WHERE key = ANY($1)`,
		pq.Array(keys),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

// SetValue upserts a configuration key.
func (r *ConfigRepository) SetValue(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := r.q.ExecContext(ctx, query, key, value)
	return err
}

// SetValues upserts all entries in one statement. Readers using
// GetValues see either the old or the new configuration, never a mix.
func (r *ConfigRepository) SetValues(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	vals := make([]string, 0, len(values))
	for key, value := range values {
		keys = append(keys, key)
		vals = append(vals, value)
	}

	query := `
		INSERT INTO config (key, value)
		SELECT unnest($1::text[]), unnest($2::text[])
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := r.q.ExecContext(ctx, query, pq.Array(keys), pq.Array(vals))
	return err
}

// Ensure ConfigRepository implements repository.ConfigRepository.
var _ repository.ConfigRepository = (*ConfigRepository)(nil)
