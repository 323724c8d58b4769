package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwhan/contango/internal/market"
)

// InstrumentRepository persists contract definitions
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

// GetByRoot retrieves all definitions whose raw symbol starts with the
// given product root, ordered by expiration
func (r *InstrumentRepository) GetByRoot(ctx context.Context, root string) ([]market.Instrument, error) {
	query := `
		SELECT instrument_id, raw_symbol, class, expiration, listed_at
		FROM market.instruments
		WHERE raw_symbol LIKE $1 || '%'
		ORDER BY expiration ASC, instrument_id ASC
	`

	rows, err := r.pool.Query(ctx, query, root)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []market.Instrument
	for rows.Next() {
		var inst market.Instrument
		var class string
		if err := rows.Scan(&inst.ID, &inst.RawSymbol, &class, &inst.Expiration, &inst.ListedAt); err != nil {
			return nil, err
		}
		inst.Class = market.InstrumentClass(class)
		defs = append(defs, inst)
	}
	return defs, rows.Err()
}

// GetByID retrieves a single definition
func (r *InstrumentRepository) GetByID(ctx context.Context, id int64) (*market.Instrument, error) {
	query := `
		SELECT instrument_id, raw_symbol, class, expiration, listed_at
		FROM market.instruments
		WHERE instrument_id = $1
	`

	var inst market.Instrument
	var class string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inst.ID, &inst.RawSymbol, &class, &inst.Expiration, &inst.ListedAt,
	)
	if err != nil {
		return nil, err
	}
	inst.Class = market.InstrumentClass(class)
	return &inst, nil
}

// Save upserts a single definition
func (r *InstrumentRepository) Save(ctx context.Context, inst market.Instrument) error {
	query := `
		INSERT INTO market.instruments (instrument_id, raw_symbol, class, expiration, listed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instrument_id) DO UPDATE SET
			raw_symbol = EXCLUDED.raw_symbol,
			class = EXCLUDED.class,
			expiration = EXCLUDED.expiration,
			listed_at = EXCLUDED.listed_at
	`

	_, err := r.pool.Exec(ctx, query,
		inst.ID, inst.RawSymbol, string(inst.Class), inst.Expiration.UTC(), inst.ListedAt.UTC(),
	)
	return err
}

// SaveBatch upserts multiple definitions
func (r *InstrumentRepository) SaveBatch(ctx context.Context, defs []market.Instrument) error {
	if len(defs) == 0 {
		return nil
	}

	for _, inst := range defs {
		if err := r.Save(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

// CountByRoot returns the number of stored definitions under a root
func (r *InstrumentRepository) CountByRoot(ctx context.Context, root string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM market.instruments
		WHERE raw_symbol LIKE $1 || '%'
	`

	var count int
	err := r.pool.QueryRow(ctx, query, root).Scan(&count)
	return count, err
}

// LatestExpiration returns the furthest stored expiration under a root,
// used to decide whether a definition refresh is due
func (r *InstrumentRepository) LatestExpiration(ctx context.Context, root string) (time.Time, error) {
	query := `
		SELECT COALESCE(MAX(expiration), 'epoch'::timestamptz)
		FROM market.instruments
		WHERE raw_symbol LIKE $1 || '%'
	`

	var latest time.Time
	err := r.pool.QueryRow(ctx, query, root).Scan(&latest)
	return latest, err
}
