package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwhan/contango/internal/roll"
)

// ScheduleRepository persists built roll schedules so repeated requests
// for the same target and window skip the rebuild
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// Get retrieves a stored schedule for the exact target and window.
// Returns (nil, nil) on a miss.
func (r *ScheduleRepository) Get(ctx context.Context, symbol string, from, to time.Time) (roll.Schedule, error) {
	query := `
		SELECT segments
		FROM market.roll_schedules
		WHERE symbol = $1 AND d0 = $2 AND d1 = $3
	`

	var raw []byte
	err := r.pool.QueryRow(ctx, query, symbol, from.UTC(), to.UTC()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var schedule roll.Schedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Save upserts a built schedule for its target and window
func (r *ScheduleRepository) Save(ctx context.Context, symbol string, from, to time.Time, schedule roll.Schedule) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO market.roll_schedules (symbol, d0, d1, segments, built_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (symbol, d0, d1) DO UPDATE SET
			segments = EXCLUDED.segments,
			built_at = EXCLUDED.built_at
	`

	_, err = r.pool.Exec(ctx, query, symbol, from.UTC(), to.UTC(), raw)
	return err
}

// DeleteBySymbol drops every stored schedule of a target, used when the
// underlying definitions change
func (r *ScheduleRepository) DeleteBySymbol(ctx context.Context, symbol string) error {
	query := `DELETE FROM market.roll_schedules WHERE symbol = $1`

	_, err := r.pool.Exec(ctx, query, symbol)
	return err
}
