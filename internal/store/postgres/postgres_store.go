package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/avast/retry-go"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"pricetrack/internal/model"
)

// foreign_key_violation, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pqForeignKeyViolation = "23503"

// newBreaker creates the circuit breaker shared by all store operations.
// A lookup that finds no row is a normal result, not a database failure,
// so sql.ErrNoRows must never count toward opening the breaker.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PostgresStore",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, sql.ErrNoRows)
		},
	})
}

// Store is the Postgres-backed catalog and price-history store. Per-key
// atomicity comes from INSERT ... ON CONFLICT upserts, so concurrent
// writers for the same key never interleave fields.
type Store struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *zap.Logger
	cb     *gobreaker.CircuitBreaker
}

func NewStore(connStr string, logger *zap.Logger, meter metric.Meter) (*Store, error) {
	if meter != nil {
		initStoreMetrics(meter)
	}
	pgLogger := logger.Named("postgres")
	pgLogger.Info("initializing postgres store")

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		pgLogger.Error("failed to open postgres connection", zap.Error(err))
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// The database may still be coming up when the process starts, so
	// only the initial ping is retried. Store operations themselves
	// never retry; that policy belongs to the caller.
	err = retry.Do(
		db.Ping,
		retry.Attempts(5),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			pgLogger.Warn("retrying ping", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		pgLogger.Error("failed to ping postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	// Automatically create tables if they do not exist
	if _, err := db.Exec(model.Schema); err != nil {
		pgLogger.Error("failed to create initial tables", zap.Error(err))
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}

	cb := newBreaker()

	pgLogger.Info("postgres store initialized successfully")
	return &Store{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: pgLogger,
		cb:     cb,
	}, nil
}

func (s *Store) UpsertProduct(ctx context.Context, productID, url, name string, now time.Time) (model.Product, error) {
	if err := model.ValidateProduct(productID, url, name); err != nil {
		return model.Product{}, err
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		row := s.sb.Insert("products").
			SetMap(map[string]interface{}{
				"product_id": productID,
				"url":        url,
				"name":       name,
				"created_at": now.UTC(),
				"updated_at": now.UTC(),
			}).
			Suffix(`ON CONFLICT (product_id) DO UPDATE SET
				url = EXCLUDED.url,
				name = EXCLUDED.name,
				updated_at = EXCLUDED.updated_at
				RETURNING product_id, url, name, created_at, updated_at`).
			RunWith(s.db).
			QueryRowContext(ctx)

		var p model.Product
		if err := row.Scan(&p.ProductID, &p.URL, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to upsert product: %w", err)
		}
		return p, nil
	})
	if err != nil {
		countStoreError(ctx)
		return model.Product{}, &model.StorageError{Op: "upsert product", Err: err}
	}
	countProductUpsert(ctx)
	return res.(model.Product), nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	query, args, err := s.sb.Select("product_id", "url", "name", "created_at", "updated_at").
		From("products").
		Where(sq.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return model.Product{}, &model.StorageError{Op: "build product query", Err: err}
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		var p model.Product
		err := s.db.QueryRowContext(ctx, query, args...).
			Scan(&p.ProductID, &p.URL, &p.Name, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, model.ErrNotFound
		}
		countStoreError(ctx)
		return model.Product{}, &model.StorageError{Op: "get product", Err: err}
	}
	return res.(model.Product), nil
}

func (s *Store) RecordObservation(ctx context.Context, obs model.Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if obs.Currency == "" {
		obs.Currency = model.DefaultCurrency
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		_, err := s.sb.Insert("price_history").
			SetMap(map[string]interface{}{
				"product_id":    obs.ProductID,
				"captured_date": obs.CapturedDate,
				"captured_at":   obs.CapturedAt.UTC(),
				"price":         obs.Price,
				"currency":      obs.Currency,
				"stock_status":  obs.StockStatus,
			}).
			Suffix(`ON CONFLICT (product_id, captured_date) DO UPDATE SET
				captured_at = EXCLUDED.captured_at,
				price = EXCLUDED.price,
				currency = EXCLUDED.currency,
				stock_status = EXCLUDED.stock_status`).
			RunWith(s.db).
			ExecContext(ctx)
		return nil, err
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return &model.ReferentialIntegrityError{ProductID: obs.ProductID}
		}
		countStoreError(ctx)
		return &model.StorageError{Op: "record observation", Err: err}
	}
	countObservationWrite(ctx)
	return nil
}

func (s *Store) GetHistory(ctx context.Context, productID, fromDate, toDate string) ([]model.Observation, error) {
	if err := model.ValidateDate("from_date", fromDate); err != nil {
		return nil, err
	}
	if err := model.ValidateDate("to_date", toDate); err != nil {
		return nil, err
	}

	query, args, err := s.sb.Select("product_id", "captured_date", "captured_at", "price", "currency", "stock_status").
		From("price_history").
		Where(sq.Eq{"product_id": productID}).
		Where(sq.GtOrEq{"captured_date": fromDate}).
		Where(sq.LtOrEq{"captured_date": toDate}).
		OrderBy("captured_date ASC").
		ToSql()
	if err != nil {
		return nil, &model.StorageError{Op: "build history query", Err: err}
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]model.Observation, 0)
		for rows.Next() {
			var obs model.Observation
			if err := rows.Scan(&obs.ProductID, &obs.CapturedDate, &obs.CapturedAt,
				&obs.Price, &obs.Currency, &obs.StockStatus); err != nil {
				return nil, err
			}
			out = append(out, obs)
		}
		return out, rows.Err()
	})
	if err != nil {
		countStoreError(ctx)
		return nil, &model.StorageError{Op: "query history", Err: err}
	}
	return res.([]model.Observation), nil
}

func (s *Store) GetLatest(ctx context.Context, productID string) (model.Observation, error) {
	query, args, err := s.sb.Select("product_id", "captured_date", "captured_at", "price", "currency", "stock_status").
		From("price_history").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("captured_date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return model.Observation{}, &model.StorageError{Op: "build latest query", Err: err}
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		var obs model.Observation
		err := s.db.QueryRowContext(ctx, query, args...).
			Scan(&obs.ProductID, &obs.CapturedDate, &obs.CapturedAt,
				&obs.Price, &obs.Currency, &obs.StockStatus)
		return obs, err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Observation{}, model.ErrNotFound
		}
		countStoreError(ctx)
		return model.Observation{}, &model.StorageError{Op: "get latest", Err: err}
	}
	return res.(model.Observation), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
