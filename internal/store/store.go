package store

import (
	"context"
	"time"

	"pricetrack/internal/model"
)

// StoreType identifies a store backend
type StoreType string

const (
	StoreTypePostgres StoreType = "postgres"
	StoreTypeMemory   StoreType = "memory"
	// Add more store backends here as you implement them
)

func (t StoreType) String() string {
	return string(t)
}

func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypePostgres, StoreTypeMemory:
		return true
	}
	return false
}

// StoreConfig selects a store backend. ExtraDetails carries
// backend-specific settings, e.g. conn_str for postgres.
type StoreConfig struct {
	DbType       StoreType              `json:"db_type"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}

// Store is the persistence contract for the product catalog and the
// daily price history.
//
// Per-key writes (UpsertProduct for one product_id, RecordObservation
// for one (product_id, captured_date)) are atomic: concurrent calls for
// the same key never interleave fields. Writes for different keys need
// no coordination. No operation retries internally; a failed write
// surfaces to the caller, who may retry because every write is
// idempotent per key.
type Store interface {
	// UpsertProduct creates the product on first sighting, setting
	// created_at = updated_at = now. On later calls it overwrites url
	// and name and refreshes updated_at; created_at never changes.
	UpsertProduct(ctx context.Context, productID, url, name string, now time.Time) (model.Product, error)

	// GetProduct returns model.ErrNotFound for an unknown product.
	GetProduct(ctx context.Context, productID string) (model.Product, error)

	// RecordObservation writes the observation keyed by
	// (product_id, captured_date), fully replacing any record already
	// present for that day. The product must already be cataloged;
	// otherwise a ReferentialIntegrityError is returned and nothing is
	// written.
	RecordObservation(ctx context.Context, obs model.Observation) error

	// GetHistory returns the observations with captured_date in
	// [fromDate, toDate], ascending by captured_date. An empty range is
	// an empty slice, not an error.
	GetHistory(ctx context.Context, productID, fromDate, toDate string) ([]model.Observation, error)

	// GetLatest returns the observation with the maximum captured_date,
	// or model.ErrNotFound if the product has no history.
	GetLatest(ctx context.Context, productID string) (model.Observation, error)

	Close() error
}
