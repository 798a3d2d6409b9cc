package model

import "time"

// DateLayout is the calendar-day format used as the deduplication key
// for observations. Dates are timezone-naive.
const DateLayout = "2006-01-02"

// DefaultCurrency is applied when an observation carries no currency.
const DefaultCurrency = "JPY"

// Product represents one monitored catalog entry
type Product struct {
	ProductID string    `db:"product_id" json:"product_id"`
	URL       string    `db:"url" json:"url"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Observation represents one day's price/stock reading for a product.
// (ProductID, CapturedDate) identifies at most one observation per day;
// CapturedAt keeps the actual instant of the last write within that day.
type Observation struct {
	ProductID    string    `db:"product_id" json:"product_id"`
	CapturedDate string    `db:"captured_date" json:"captured_date"`
	CapturedAt   time.Time `db:"captured_at" json:"captured_at"`
	Price        *float64  `db:"price" json:"price"`
	Currency     string    `db:"currency" json:"currency"`
	StockStatus  *string   `db:"stock_status" json:"stock_status,omitempty"`
}

// Schema is the SQL schema for the products and price_history tables
const Schema = `
CREATE TABLE IF NOT EXISTS products (
    product_id  TEXT PRIMARY KEY,
    url         TEXT NOT NULL,
    name        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS price_history (
    product_id    TEXT NOT NULL REFERENCES products(product_id),
    captured_date TEXT NOT NULL,
    captured_at   TIMESTAMPTZ NOT NULL,
    price         DOUBLE PRECISION,
    currency      TEXT NOT NULL DEFAULT 'JPY',
    stock_status  TEXT,
    PRIMARY KEY (product_id, captured_date)
);

CREATE INDEX IF NOT EXISTS idx_price_history_pid_date
    ON price_history (product_id, captured_date);
`
