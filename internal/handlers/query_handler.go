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

// earliestDate is the lower bound used when a history query omits "from".
const earliestDate = "0001-01-01"

// QueryHandler serves the read path: product metadata, history ranges
// and the latest observation.
type QueryHandler struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(st store.Store, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		store:  st,
		logger: logger.Named("query"),
		now:    time.Now,
	}
}

// RegisterRoutes registers the routes for this handler
func (h *QueryHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/v1/products/{id}", h.handleGetProduct).Methods("GET")
	router.HandleFunc("/v1/products/{id}/history", h.handleGetHistory).Methods("GET")
	router.HandleFunc("/v1/products/{id}/latest", h.handleGetLatest).Methods("GET")
}

func (h *QueryHandler) handleGetProduct(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	productID := mux.Vars(req)["id"]

	product, err := h.store.GetProduct(req.Context(), productID)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	if err := json.NewEncoder(w).Encode(product); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *QueryHandler) handleGetHistory(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	productID := mux.Vars(req)["id"]

	from := req.URL.Query().Get("from")
	if from == "" {
		from = earliestDate
	}
	to := req.URL.Query().Get("to")
	if to == "" {
		to = h.now().UTC().Format(model.DateLayout)
	}

	observations, err := h.store.GetHistory(req.Context(), productID, from, to)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	response := map[string]interface{}{
		"product_id":   productID,
		"from":         from,
		"to":           to,
		"count":        len(observations),
		"observations": observations,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *QueryHandler) handleGetLatest(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	productID := mux.Vars(req)["id"]

	obs, err := h.store.GetLatest(req.Context(), productID)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	if err := json.NewEncoder(w).Encode(obs); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
