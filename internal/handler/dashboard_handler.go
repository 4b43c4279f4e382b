package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"
	"ecostock/internal/service"

	"github.com/rs/zerolog"
)

// ExportFilename is the attachment name of the CSV export.
const ExportFilename = "filtered_inventory.csv"

// DashboardHandler serves the annotated inventory views.
type DashboardHandler struct {
	service  service.InventoryService
	sessions service.SessionService
	logger   zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service service.InventoryService, sessions service.SessionService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		sessions: sessions,
		logger:   logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Get handles GET /api/dashboard requests.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.runRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Run(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, newDashboardResponse(result))
}

// Upload handles POST /api/dashboard/upload requests. The body is a CSV
// file, either raw or as the "file" part of a multipart form. The upload
// replaces the stored records for this run only.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, ok := h.runRequest(w, r)
	if !ok {
		return
	}

	data, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRecord, "could not read uploaded file", h.logger)
		return
	}

	records, err := inventorycsv.Decode(bytes.NewReader(data))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	req.Base = records

	result, err := h.service.Run(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	h.logger.Info().Int("records", len(records)).Msg("uploaded dataset processed")
	writeJSON(w, http.StatusOK, newDashboardResponse(result))
}

// Export handles GET /api/inventory/export requests with a CSV download of
// the filtered annotated records.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, ok := h.runRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Run(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var buf bytes.Buffer
	if err := inventorycsv.EncodeAnnotated(&buf, result.Records); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode export")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to export inventory", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ExportFilename}))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// runRequest builds the pipeline request from the category and session
// parameters. It writes the error response itself and reports false on failure.
func (h *DashboardHandler) runRequest(w http.ResponseWriter, r *http.Request) (service.RunRequest, bool) {
	req := service.RunRequest{Categories: parseCategories(r)}

	id, ok, err := parseSessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeSessionNotFound, "invalid session ID format", h.logger)
		return req, false
	}
	if !ok {
		return req, true
	}

	staged, err := h.sessions.Entries(id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return req, false
	}
	req.Staged = staged
	return req, true
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}
	return data, nil
}

func newDashboardResponse(result *service.RunResult) model.DashboardResponse {
	resp := model.DashboardResponse{
		Categories:       result.Categories,
		Records:          make([]model.DashboardRow, 0, len(result.Records)),
		HighRisk:         []model.DashboardRow{},
		Suggestions:      make([]model.Suggestion, 0, len(result.AtRisk)),
		SalesVsPredicted: make([]model.SalesPoint, 0, len(result.Records)),
		Fallback:         result.Fallback,
	}

	counts := map[model.RiskLevel]int{}
	for _, rec := range result.Records {
		resp.Records = append(resp.Records, model.NewDashboardRow(rec))
		resp.SalesVsPredicted = append(resp.SalesVsPredicted, model.SalesPoint{
			Product:         rec.Product,
			WeeklySales:     rec.WeeklySales,
			PredictedDemand: rec.PredictedDemand,
		})
		counts[rec.RiskLevel]++
	}

	for _, rec := range result.AtRisk {
		row := model.NewDashboardRow(rec)
		if rec.RiskLevel == model.RiskHigh {
			resp.HighRisk = append(resp.HighRisk, row)
		}
		resp.Suggestions = append(resp.Suggestions, model.Suggestion{DashboardRow: row, Suggestion: model.SuggestionText})
	}

	resp.Summary = model.DashboardSummary{
		Total:  len(result.Records),
		High:   counts[model.RiskHigh],
		Medium: counts[model.RiskMedium],
	}
	for _, level := range []model.RiskLevel{model.RiskHigh, model.RiskMedium, model.RiskLow} {
		resp.RiskDistribution = append(resp.RiskDistribution, model.RiskCount{RiskLevel: level, Count: counts[level]})
	}

	return resp
}
