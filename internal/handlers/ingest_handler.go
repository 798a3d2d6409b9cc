package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pricetrack/internal/model"
	"pricetrack/internal/store"
)

// IngestHandler consumes writes from the ingestion source: product
// upserts and daily price observations.
type IngestHandler struct {
	store           store.Store
	logger          *zap.Logger
	defaultCurrency string
	now             func() time.Time
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(st store.Store, logger *zap.Logger, defaultCurrency string) *IngestHandler {
	if defaultCurrency == "" {
		defaultCurrency = model.DefaultCurrency
	}
	return &IngestHandler{
		store:           st,
		logger:          logger.Named("ingest"),
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// RegisterRoutes registers the routes for this handler
func (h *IngestHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/v1/products/{id}", h.handleUpsertProduct).Methods("PUT")
	router.HandleFunc("/v1/products/{id}/observations", h.handleRecordObservation).Methods("POST")
}

func (h *IngestHandler) handleUpsertProduct(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	productID := mux.Vars(req)["id"]

	var body struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.store.UpsertProduct(req.Context(), productID, body.URL, body.Name, h.now().UTC())
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	if err := json.NewEncoder(w).Encode(product); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *IngestHandler) handleRecordObservation(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	productID := mux.Vars(req)["id"]

	var body struct {
		CapturedDate string     `json:"captured_date"`
		CapturedAt   *time.Time `json:"captured_at"`
		Price        *float64   `json:"price"`
		Currency     string     `json:"currency"`
		StockStatus  *string    `json:"stock_status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	capturedAt := h.now().UTC()
	if body.CapturedAt != nil {
		capturedAt = body.CapturedAt.UTC()
	}

	obs := model.Observation{
		ProductID:    productID,
		CapturedDate: body.CapturedDate,
		CapturedAt:   capturedAt,
		Price:        body.Price,
		Currency:     body.Currency,
		StockStatus:  body.StockStatus,
	}
	// An omitted date means "today", the day of capture.
	if obs.CapturedDate == "" {
		obs.CapturedDate = capturedAt.Format(model.DateLayout)
	}
	if obs.Currency == "" {
		obs.Currency = h.defaultCurrency
	}

	if err := h.store.RecordObservation(req.Context(), obs); err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	response := map[string]interface{}{
		"product_id":    obs.ProductID,
		"captured_date": obs.CapturedDate,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
