package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

type PriceHistoryRepository struct {
	db *sql.DB
}

func NewPriceHistoryRepository(db *sql.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// InsertObservation appends one row. Rows are never updated.
func (r *PriceHistoryRepository) InsertObservation(ctx context.Context, obs *models.PriceObservation) error {
	query := `
		INSERT INTO price_history (gpu_id, price, source, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		obs.GPUID,
		obs.Price,
		obs.Source,
		obs.RecordedAt,
	).Scan(&obs.ID)
}

// GetByGPU returns one GPU's observations in [from, to], newest first.
func (r *PriceHistoryRepository) GetByGPU(ctx context.Context, gpuID int64, from, to time.Time, limit int) ([]models.PriceObservation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, gpu_id, price, source, recorded_at
		FROM price_history
		WHERE gpu_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at DESC
		LIMIT $4`

	return r.query(ctx, query, gpuID, from, to, limit)
}

// GetSince returns observations across all GPUs recorded after since,
// newest first, capped at limit rows.
func (r *PriceHistoryRepository) GetSince(ctx context.Context, since time.Time, limit int) ([]models.PriceObservation, error) {
	if limit <= 0 {
		limit = 10000
	}

	query := `
		SELECT id, gpu_id, price, source, recorded_at
		FROM price_history
		WHERE recorded_at > $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	return r.query(ctx, query, since, limit)
}

func (r *PriceHistoryRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.PriceObservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := []models.PriceObservation{}
	for rows.Next() {
		var o models.PriceObservation
		if err := rows.Scan(&o.ID, &o.GPUID, &o.Price, &o.Source, &o.RecordedAt); err != nil {
			return nil, err
		}
		observations = append(observations, o)
	}

	return observations, rows.Err()
}
