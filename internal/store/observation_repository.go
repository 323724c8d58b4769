package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwhan/contango/internal/market"
)

// DailyBar is one stored OHLCV row for an instrument
type DailyBar struct {
	InstrumentID int64
	Time         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
}

// Fields maps the bar columns to named observation fields. Close doubles
// as "price", the default splice input.
func (b DailyBar) Fields() map[string]float64 {
	return map[string]float64{
		"open":   b.Open,
		"high":   b.High,
		"low":    b.Low,
		"close":  b.Close,
		"price":  b.Close,
		"volume": float64(b.Volume),
	}
}

// ObservationRepository persists daily bars
type ObservationRepository struct {
	pool *pgxpool.Pool
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(pool *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// GetByInstruments retrieves the bars of the given instruments in
// [from, to), joined with their expirations, as splice-ready
// observations
func (r *ObservationRepository) GetByInstruments(ctx context.Context, ids []int64, from, to time.Time) ([]market.Observation, error) {
	query := `
		SELECT b.instrument_id, b.ts, b.open_price, b.high_price, b.low_price, b.close_price, b.volume, i.expiration
		FROM market.daily_bars b
		JOIN market.instruments i ON i.instrument_id = b.instrument_id
		WHERE b.instrument_id = ANY($1) AND b.ts >= $2 AND b.ts < $3
		ORDER BY b.instrument_id ASC, b.ts ASC
	`

	rows, err := r.pool.Query(ctx, query, ids, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []market.Observation
	for rows.Next() {
		var bar DailyBar
		var exp time.Time
		if err := rows.Scan(
			&bar.InstrumentID, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &exp,
		); err != nil {
			return nil, err
		}
		obs = append(obs, market.Observation{
			InstrumentID: bar.InstrumentID,
			Time:         bar.Time,
			Fields:       bar.Fields(),
			Expiration:   exp,
		})
	}
	return obs, rows.Err()
}

// GetByRoot retrieves all bars of a product root in [from, to)
func (r *ObservationRepository) GetByRoot(ctx context.Context, root string, from, to time.Time) ([]market.Observation, error) {
	query := `
		SELECT b.instrument_id, b.ts, b.open_price, b.high_price, b.low_price, b.close_price, b.volume, i.expiration
		FROM market.daily_bars b
		JOIN market.instruments i ON i.instrument_id = b.instrument_id
		WHERE i.raw_symbol LIKE $1 || '%' AND b.ts >= $2 AND b.ts < $3
		ORDER BY b.instrument_id ASC, b.ts ASC
	`

	rows, err := r.pool.Query(ctx, query, root, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []market.Observation
	for rows.Next() {
		var bar DailyBar
		var exp time.Time
		if err := rows.Scan(
			&bar.InstrumentID, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &exp,
		); err != nil {
			return nil, err
		}
		obs = append(obs, market.Observation{
			InstrumentID: bar.InstrumentID,
			Time:         bar.Time,
			Fields:       bar.Fields(),
			Expiration:   exp,
		})
	}
	return obs, rows.Err()
}

// Save upserts a single bar
func (r *ObservationRepository) Save(ctx context.Context, bar DailyBar) error {
	query := `
		INSERT INTO market.daily_bars (instrument_id, ts, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (instrument_id, ts) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	_, err := r.pool.Exec(ctx, query,
		bar.InstrumentID, bar.Time.UTC(), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
	)
	return err
}

// SaveBatch upserts multiple bars
func (r *ObservationRepository) SaveBatch(ctx context.Context, bars []DailyBar) error {
	if len(bars) == 0 {
		return nil
	}

	for _, bar := range bars {
		if err := r.Save(ctx, bar); err != nil {
			return err
		}
	}
	return nil
}

// LatestDate returns the most recent bar date under a product root
func (r *ObservationRepository) LatestDate(ctx context.Context, root string) (time.Time, error) {
	query := `
		SELECT COALESCE(MAX(b.ts), 'epoch'::timestamptz)
		FROM market.daily_bars b
		JOIN market.instruments i ON i.instrument_id = b.instrument_id
		WHERE i.raw_symbol LIKE $1 || '%'
	`

	var latest time.Time
	err := r.pool.QueryRow(ctx, query, root).Scan(&latest)
	return latest, err
}
