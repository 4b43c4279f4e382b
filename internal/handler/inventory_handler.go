package handler

import (
	"errors"
	"net/http"
	"strings"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"
	"ecostock/internal/service"

	"github.com/rs/zerolog"
)

// InventoryHandler handles edits to the stored inventory.
type InventoryHandler struct {
	service service.InventoryService
	logger  zerolog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(service service.InventoryService, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With().Str("handler", "inventory").Logger(),
	}
}

// Create handles POST /api/inventory requests.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	record, err := decodeRecord(w, r)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRecord) {
			writeServiceError(w, err, h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.service.Add(r.Context(), record); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, fromRecord(record))
}

// Delete handles DELETE /api/inventory requests. The record identity is
// given as the product, category, store and expiry query parameters.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	expiryRaw := query.Get("expiry")
	expiry, err := inventorycsv.ParseDate(expiryRaw)
	if err != nil {
		writeServiceError(w, &model.DataError{Field: "expiry", Value: expiryRaw, Err: err}, h.logger)
		return
	}

	key := model.IdentityKey{
		Product:    strings.TrimSpace(query.Get("product")),
		Category:   model.Category(strings.TrimSpace(query.Get("category"))),
		StoreID:    model.StoreID(strings.TrimSpace(query.Get("store"))),
		ExpiryDate: expiry,
	}

	removed, err := h.service.Delete(r.Context(), key)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteResponse{Removed: removed})
}
