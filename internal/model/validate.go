package model

import (
	"strings"
	"time"
)

// ValidateProduct checks the required product fields before any write.
func ValidateProduct(productID, url, name string) error {
	if strings.TrimSpace(productID) == "" {
		return &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(url) == "" {
		return &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}

// ValidateDate checks that value is a calendar day in YYYY-MM-DD form.
func ValidateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return &ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD form"}
	}
	return nil
}

// Validate checks the observation before any write.
func (o Observation) Validate() error {
	if strings.TrimSpace(o.ProductID) == "" {
		return &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if err := ValidateDate("captured_date", o.CapturedDate); err != nil {
		return err
	}
	if o.CapturedAt.IsZero() {
		return &ValidationError{Field: "captured_at", Reason: "must not be zero"}
	}
	if o.Currency != "" && !isCurrencyCode(o.Currency) {
		return &ValidationError{Field: "currency", Reason: "must be a 3-letter code"}
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
