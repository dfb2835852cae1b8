package queries

import (
	"database/sql"
)

// PriceStore joins the two write paths one sync touches: the current price on
// gpus and the append-only price_history row.
type PriceStore struct {
	*GPURepository
	*PriceHistoryRepository
}

func NewPriceStore(db *sql.DB) *PriceStore {
	return &PriceStore{
		GPURepository:          NewGPURepository(db),
		PriceHistoryRepository: NewPriceHistoryRepository(db),
	}
}
