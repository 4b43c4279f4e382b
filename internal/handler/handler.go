package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds uploaded CSV files and JSON bodies.
const maxUploadBytes = 10 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error to its status code. Data errors
// carry their message to the client; anything unexpected does not.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, model.ErrCodeSessionNotFound, model.ErrSessionNotFound.Message, logger)
	case errors.Is(err, model.ErrEmptyDataset):
		writeError(w, http.StatusBadRequest, model.ErrCodeEmptyDataset, model.ErrEmptyDataset.Message, logger)
	case errors.Is(err, model.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRecord, dataErrorMessage(err), logger)
	case errors.Is(err, model.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, model.ErrCodeStoreUnavailable, model.ErrStoreUnavailable.Message, logger)
	default:
		logger.Error().Err(err).Msg("unexpected service error")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
	}
}

func dataErrorMessage(err error) string {
	var dataErr *model.DataError
	if errors.As(err, &dataErr) {
		return dataErr.Error()
	}
	return model.ErrInvalidRecord.Message
}

// parseCategories reads repeated or comma separated category parameters.
func parseCategories(r *http.Request) []model.Category {
	var categories []model.Category
	for _, value := range r.URL.Query()["category"] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				categories = append(categories, model.Category(part))
			}
		}
	}
	return categories
}

// parseSessionID reads the optional session parameter.
func parseSessionID(r *http.Request) (uuid.UUID, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("session"))
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// toRecord converts a request body into a record.
func toRecord(req model.InventoryRecordRequest) (model.InventoryRecord, error) {
	expiry, err := inventorycsv.ParseDate(req.ExpiryDate)
	if err != nil {
		return model.InventoryRecord{}, &model.DataError{Field: "ExpiryDate", Value: req.ExpiryDate, Err: err}
	}
	return model.InventoryRecord{
		Product:     strings.TrimSpace(req.Product),
		Category:    req.Category,
		StockQty:    req.StockQty,
		WeeklySales: req.WeeklySales,
		ExpiryDate:  expiry,
		StoreID:     req.StoreID,
		Weather:     req.Weather,
		HolidayFlag: req.HolidayFlag,
	}, nil
}

// fromRecord converts a record into its request shape.
func fromRecord(rec model.InventoryRecord) model.InventoryRecordRequest {
	return model.InventoryRecordRequest{
		Product:     rec.Product,
		Category:    rec.Category,
		StockQty:    rec.StockQty,
		WeeklySales: rec.WeeklySales,
		ExpiryDate:  rec.ExpiryDate.Format(model.DateLayout),
		StoreID:     rec.StoreID,
		Weather:     rec.Weather,
		HolidayFlag: rec.HolidayFlag,
	}
}

// decodeRecord reads a JSON record body.
func decodeRecord(w http.ResponseWriter, r *http.Request) (model.InventoryRecord, error) {
	var req model.InventoryRecordRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return model.InventoryRecord{}, err
	}
	return toRecord(req)
}
