package postgres

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce       sync.Once
	productUpserts    metric.Int64Counter
	observationWrites metric.Int64Counter
	storeErrors       metric.Int64Counter
)

func initStoreMetrics(meter metric.Meter) {
	metricsOnce.Do(func() {
		productUpserts, _ = meter.Int64Counter("pricetrack_product_upserts_total",
			metric.WithDescription("Number of successful product upserts"))
		observationWrites, _ = meter.Int64Counter("pricetrack_observation_writes_total",
			metric.WithDescription("Number of successful observation writes"))
		storeErrors, _ = meter.Int64Counter("pricetrack_store_errors_total",
			metric.WithDescription("Number of failed store operations"))
	})
}

func countProductUpsert(ctx context.Context) {
	if productUpserts != nil {
		productUpserts.Add(ctx, 1)
	}
}

func countObservationWrite(ctx context.Context) {
	if observationWrites != nil {
		observationWrites.Add(ctx, 1)
	}
}

func countStoreError(ctx context.Context) {
	if storeErrors != nil {
		storeErrors.Add(ctx, 1)
	}
}
