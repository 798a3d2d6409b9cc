package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricetrack/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestInMemoryStore_UpsertProduct_CreatedAtStable(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()

	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	first, err := st.UpsertProduct(ctx, "sku-1", "https://example.com/a", "Widget", t1)
	require.NoError(t, err)
	require.Equal(t, t1, first.CreatedAt)
	require.Equal(t, t1, first.UpdatedAt)

	second, err := st.UpsertProduct(ctx, "sku-1", "https://example.com/b", "Widget v2", t2)
	require.NoError(t, err)
	require.Equal(t, t1, second.CreatedAt, "created_at must not regress on upsert")
	require.Equal(t, t2, second.UpdatedAt)
	require.Equal(t, "https://example.com/b", second.URL)
	require.Equal(t, "Widget v2", second.Name)

	got, err := st.GetProduct(ctx, "sku-1")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestInMemoryStore_UpsertProduct_Validation(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	var validationErr *model.ValidationError

	_, err := st.UpsertProduct(ctx, "", "https://example.com", "Widget", now)
	require.ErrorAs(t, err, &validationErr)

	_, err = st.UpsertProduct(ctx, "sku-1", "", "Widget", now)
	require.ErrorAs(t, err, &validationErr)

	_, err = st.UpsertProduct(ctx, "sku-1", "https://example.com", "  ", now)
	require.ErrorAs(t, err, &validationErr)

	// nothing was written
	_, err = st.GetProduct(ctx, "sku-1")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestInMemoryStore_GetProduct_NotFound(t *testing.T) {
	st := NewInMemoryStore()

	_, err := st.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestInMemoryStore_RecordObservation_IdempotentOverwrite(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	_, err := st.UpsertProduct(ctx, "sku-1", "https://example.com", "Widget", now)
	require.NoError(t, err)

	err = st.RecordObservation(ctx, model.Observation{
		ProductID:    "sku-1",
		CapturedDate: "2024-01-01",
		CapturedAt:   now,
		Price:        floatPtr(1000),
		Currency:     "JPY",
		StockStatus:  strPtr("in_stock"),
	})
	require.NoError(t, err)

	later := now.Add(6 * time.Hour)
	err = st.RecordObservation(ctx, model.Observation{
		ProductID:    "sku-1",
		CapturedDate: "2024-01-01",
		CapturedAt:   later,
		Price:        floatPtr(950),
		Currency:     "JPY",
		StockStatus:  strPtr("in_stock"),
	})
	require.NoError(t, err)

	history, err := st.GetHistory(ctx, "sku-1", "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, history, 1, "same-day writes must collapse to one record")
	require.Equal(t, float64(950), *history[0].Price)
	require.Equal(t, later, history[0].CapturedAt, "the latest write for the day wins")
}

func TestInMemoryStore_RecordObservation_UnknownProduct(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()

	err := st.RecordObservation(ctx, model.Observation{
		ProductID:    "ghost",
		CapturedDate: "2024-01-01",
		CapturedAt:   time.Now().UTC(),
	})
	var integrityErr *model.ReferentialIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	require.Equal(t, "ghost", integrityErr.ProductID)

	_, err = st.GetLatest(ctx, "ghost")
	require.ErrorIs(t, err, model.ErrNotFound, "a failed write must leave nothing behind")
}

func TestInMemoryStore_RecordObservation_NullablePriceAndDefaultCurrency(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := st.UpsertProduct(ctx, "sku-1", "https://example.com", "Widget", now)
	require.NoError(t, err)

	// out of stock with no listed price
	err = st.RecordObservation(ctx, model.Observation{
		ProductID:    "sku-1",
		CapturedDate: "2024-03-05",
		CapturedAt:   now,
		StockStatus:  strPtr("out_of_stock"),
	})
	require.NoError(t, err)

	latest, err := st.GetLatest(ctx, "sku-1")
	require.NoError(t, err)
	require.Nil(t, latest.Price)
	require.Equal(t, model.DefaultCurrency, latest.Currency)
}

func TestInMemoryStore_GetHistory_OrderedAndBounded(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := st.UpsertProduct(ctx, "sku-1", "https://example.com", "Widget", now)
	require.NoError(t, err)

	// written out of order on purpose
	for _, day := range []string{"2024-01-03", "2024-01-01", "2024-01-05", "2024-01-02"} {
		err := st.RecordObservation(ctx, model.Observation{
			ProductID:    "sku-1",
			CapturedDate: day,
			CapturedAt:   now,
			Price:        floatPtr(100),
			Currency:     "JPY",
		})
		require.NoError(t, err)
	}

	history, err := st.GetHistory(ctx, "sku-1", "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		require.Less(t, history[i-1].CapturedDate, history[i].CapturedDate,
			"history must be strictly ascending by captured_date")
	}

	// empty range is a result, not an error
	empty, err := st.GetHistory(ctx, "sku-1", "2023-01-01", "2023-12-31")
	require.NoError(t, err)
	require.Empty(t, empty)

	// unknown product also yields an empty result
	none, err := st.GetHistory(ctx, "missing", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestInMemoryStore_GetHistory_InvalidDates(t *testing.T) {
	st := NewInMemoryStore()

	var validationErr *model.ValidationError
	_, err := st.GetHistory(context.Background(), "sku-1", "01/02/2024", "2024-01-31")
	require.ErrorAs(t, err, &validationErr)

	_, err = st.GetHistory(context.Background(), "sku-1", "2024-01-01", "")
	require.ErrorAs(t, err, &validationErr)
}

func TestInMemoryStore_ExampleScenario(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := st.UpsertProduct(ctx, "sku-1", "https://example.com/widget", "Widget", now)
	require.NoError(t, err)

	err = st.RecordObservation(ctx, model.Observation{
		ProductID: "sku-1", CapturedDate: "2024-01-01", CapturedAt: now,
		Price: floatPtr(1000), Currency: "JPY", StockStatus: strPtr("in_stock"),
	})
	require.NoError(t, err)

	err = st.RecordObservation(ctx, model.Observation{
		ProductID: "sku-1", CapturedDate: "2024-01-01", CapturedAt: now.Add(time.Hour),
		Price: floatPtr(950), Currency: "JPY", StockStatus: strPtr("in_stock"),
	})
	require.NoError(t, err)

	history, err := st.GetHistory(ctx, "sku-1", "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, float64(950), *history[0].Price)

	err = st.RecordObservation(ctx, model.Observation{
		ProductID: "sku-1", CapturedDate: "2024-01-02", CapturedAt: now.Add(24 * time.Hour),
		Price: floatPtr(900), Currency: "JPY", StockStatus: strPtr("in_stock"),
	})
	require.NoError(t, err)

	latest, err := st.GetLatest(ctx, "sku-1")
	require.NoError(t, err)
	require.Equal(t, "2024-01-02", latest.CapturedDate)
	require.Equal(t, float64(900), *latest.Price)
}

func TestInMemoryStore_ConcurrentSameKeyWrites(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := st.UpsertProduct(ctx, "sku-1", "https://example.com", "Widget", now)
	require.NoError(t, err)

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(n int) {
			price := float64(n)
			done <- st.RecordObservation(ctx, model.Observation{
				ProductID:    "sku-1",
				CapturedDate: "2024-01-01",
				CapturedAt:   now,
				Price:        &price,
				Currency:     "JPY",
			})
		}(i)
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-done)
	}

	history, err := st.GetHistory(ctx, "sku-1", "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, history, 1, "concurrent same-day writes must still collapse to one record")
}

func TestInMemoryStore_ErrorTaxonomy(t *testing.T) {
	// StorageError unwraps to its cause
	cause := errors.New("boom")
	err := &model.StorageError{Op: "write", Err: cause}
	require.ErrorIs(t, err, cause)
}
