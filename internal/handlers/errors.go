package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"pricetrack/internal/model"
)

// writeStoreError maps the store error taxonomy onto HTTP statuses:
// validation 400, missing product reference 409, not found 404,
// everything else is a transient storage failure, 503.
func writeStoreError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *model.ValidationError
	var integrityErr *model.ReferentialIntegrityError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &integrityErr):
		http.Error(w, integrityErr.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		logger.Error("store operation failed", zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	}
}
