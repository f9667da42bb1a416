package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository issues sequence values with a single upsert statement.
type CounterRepository struct {
	pool *pgxpool.Pool
}

func NewCounterRepository(pool *pgxpool.Pool) (*CounterRepository, error) {
	if pool == nil {
		return nil, errors.New("counter repository requires postgres pool")
	}
	return &CounterRepository{pool: pool}, nil
}

// Next atomically increments the named counter by step, creating it at step when missing.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	counterID = strings.TrimSpace(counterID)
	if counterID == "" {
		return 0, errors.New("counter repository: counter id is required")
	}
	if step <= 0 {
		return 0, fmt.Errorf("counter repository: step must be positive, got %d", step)
	}
	var value int64
	err := r.pool.QueryRow(ctx, `INSERT INTO counters (id, current_value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET current_value = counters.current_value + EXCLUDED.current_value, updated_at = now()
RETURNING current_value`, counterID, step).Scan(&value)
	if err != nil {
		return 0, wrapError("counters.next", err)
	}
	return value, nil
}
