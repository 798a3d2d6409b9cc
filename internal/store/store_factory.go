package store

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"pricetrack/internal/store/postgres"
	"pricetrack/internal/telemetry"
)

// Factory defines the interface for creating store backends
type Factory interface {
	CreateStore(configJSON string) (Store, error)
}

// StoreFactory implements Factory for creating store backends
type StoreFactory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

func NewStoreFactory(logger *zap.Logger, tel *telemetry.Telemetry) *StoreFactory {
	return &StoreFactory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

func (f *StoreFactory) CreateStore(configJSON string) (Store, error) {
	var config StoreConfig
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to parse store configuration JSON: %w", err)
	}

	f.logger.Info("creating store",
		zap.String("db_type", config.DbType.String()),
		zap.Any("extra_details", config.ExtraDetails))

	if !config.DbType.IsValid() {
		return nil, fmt.Errorf("unsupported store type: %s", config.DbType)
	}

	var meter metric.Meter
	if f.telemetry != nil {
		meter = f.telemetry.Meter
	}

	switch config.DbType {
	case StoreTypePostgres:
		connStr, ok := config.ExtraDetails["conn_str"].(string)
		if !ok {
			return nil, fmt.Errorf("conn_str is required for the postgres store")
		}
		return postgres.NewStore(connStr, f.logger, meter)
	case StoreTypeMemory:
		f.logger.Info("using in-memory store")
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.DbType)
	}
}
