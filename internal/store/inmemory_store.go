package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"pricetrack/internal/model"
)

type obsKey struct {
	productID string
	date      string
}

// InMemoryStore keeps the catalog and history in process memory. It is
// used for tests and local runs without a database.
type InMemoryStore struct {
	mu           sync.RWMutex
	products     map[string]model.Product
	observations map[obsKey]model.Observation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products:     make(map[string]model.Product),
		observations: make(map[obsKey]model.Observation),
	}
}

func (m *InMemoryStore) UpsertProduct(ctx context.Context, productID, url, name string, now time.Time) (model.Product, error) {
	if err := model.ValidateProduct(productID, url, name); err != nil {
		return model.Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		p = model.Product{ProductID: productID, CreatedAt: now}
	}
	p.URL = url
	p.Name = name
	p.UpdatedAt = now
	m.products[productID] = p
	return p, nil
}

func (m *InMemoryStore) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return model.Product{}, model.ErrNotFound
	}
	return p, nil
}

func (m *InMemoryStore) RecordObservation(ctx context.Context, obs model.Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if obs.Currency == "" {
		obs.Currency = model.DefaultCurrency
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[obs.ProductID]; !ok {
		return &model.ReferentialIntegrityError{ProductID: obs.ProductID}
	}
	// overwrite for idempotency
	m.observations[obsKey{obs.ProductID, obs.CapturedDate}] = obs
	return nil
}

func (m *InMemoryStore) GetHistory(ctx context.Context, productID, fromDate, toDate string) ([]model.Observation, error) {
	if err := model.ValidateDate("from_date", fromDate); err != nil {
		return nil, err
	}
	if err := model.ValidateDate("to_date", toDate); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Observation, 0)
	for k, obs := range m.observations {
		if k.productID != productID {
			continue
		}
		// YYYY-MM-DD order is lexicographic
		if k.date < fromDate || k.date > toDate {
			continue
		}
		out = append(out, obs)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CapturedDate < out[j].CapturedDate
	})
	return out, nil
}

func (m *InMemoryStore) GetLatest(ctx context.Context, productID string) (model.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest model.Observation
	found := false
	for k, obs := range m.observations {
		if k.productID != productID {
			continue
		}
		if !found || obs.CapturedDate > latest.CapturedDate {
			latest = obs
			found = true
		}
	}
	if !found {
		return model.Observation{}, model.ErrNotFound
	}
	return latest, nil
}

func (m *InMemoryStore) Close() error {
	return nil
}
