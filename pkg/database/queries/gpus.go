package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

var ErrGPUNotFound = errors.New("gpu not found")

type scanner interface {
	Scan(dest ...interface{}) error
}

type GPURepository struct {
	db *sql.DB
}

func NewGPURepository(db *sql.DB) *GPURepository {
	return &GPURepository{db: db}
}

const gpuColumns = `
	id, brand, model, msrp, current_price, availability,
	cpu_cores, ram_gb, disk_gb, network_mbps, compute_score, reliability,
	provider_count, price_min, price_max, data_sources, created_at, updated_at`

// GetAll returns the tracked catalog, optionally restricted to one brand.
func (r *GPURepository) GetAll(ctx context.Context, brand models.Brand) ([]models.GPU, error) {
	query := `SELECT ` + gpuColumns + ` FROM gpus`
	var args []interface{}
	if brand != "" {
		query += ` WHERE brand = $1`
		args = append(args, brand)
	}
	query += ` ORDER BY brand, model`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gpus := []models.GPU{}
	for rows.Next() {
		gpu, err := scanGPU(rows)
		if err != nil {
			return nil, err
		}
		gpus = append(gpus, *gpu)
	}

	return gpus, rows.Err()
}

func (r *GPURepository) GetByID(ctx context.Context, id int64) (*models.GPU, error) {
	query := `SELECT ` + gpuColumns + ` FROM gpus WHERE id = $1`

	gpu, err := scanGPU(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGPUNotFound
	}
	return gpu, err
}

// UpdateGPUPrice overwrites the current price and the extended spec columns.
func (r *GPURepository) UpdateGPUPrice(ctx context.Context, id int64, price float64, specs models.GPUSpecs) error {
	query := `
		UPDATE gpus
		SET current_price = $2,
			cpu_cores = $3, ram_gb = $4, disk_gb = $5, network_mbps = $6,
			compute_score = $7, reliability = $8, provider_count = $9,
			price_min = $10, price_max = $11, data_sources = $12,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id,
		price,
		specs.CPUCores,
		specs.RAMGB,
		specs.DiskGB,
		specs.NetworkMbps,
		specs.ComputeScore,
		specs.Reliability,
		specs.ProviderCount,
		specs.PriceMin,
		specs.PriceMax,
		pq.Array(specs.DataSources),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGPUNotFound
	}
	return nil
}

func scanGPU(row scanner) (*models.GPU, error) {
	var (
		g             models.GPU
		providerCount sql.NullInt64
		dataSources   []string
	)
	err := row.Scan(
		&g.ID, &g.Brand, &g.Model, &g.MSRP, &g.CurrentPrice, &g.Availability,
		&g.Specs.CPUCores, &g.Specs.RAMGB, &g.Specs.DiskGB, &g.Specs.NetworkMbps,
		&g.Specs.ComputeScore, &g.Specs.Reliability,
		&providerCount, &g.Specs.PriceMin, &g.Specs.PriceMax,
		pq.Array(&dataSources), &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if providerCount.Valid {
		g.Specs.ProviderCount = models.Int(int(providerCount.Int64))
	}
	g.Specs.DataSources = dataSources
	return &g, nil
}
