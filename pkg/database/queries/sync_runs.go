package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

type SyncRunRepository struct {
	db *sql.DB
}

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sync_runs (started_at, finished_at, total_gpus, updated, not_found, failed, sources)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		run.StartedAt,
		run.FinishedAt,
		run.TotalGPUs,
		run.Updated,
		run.NotFound,
		run.Failed,
		sources,
	).Scan(&run.ID)
}

func (r *SyncRunRepository) GetRecent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, started_at, finished_at, total_gpus, updated, not_found, failed, sources
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []models.SyncRun{}
	for rows.Next() {
		var (
			run     models.SyncRun
			sources []byte
		)
		err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt,
			&run.TotalGPUs, &run.Updated, &run.NotFound, &run.Failed,
			&sources,
		)
		if err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &run.Sources); err != nil {
				return nil, err
			}
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
