package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"
	"ecostock/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler_Get(t *testing.T) {
	svc := new(MockInventoryService)
	sessions := new(MockSessionService)
	h := NewDashboardHandler(svc, sessions, zerolog.Nop())

	svc.On("Run", mock.Anything, service.RunRequest{
		Categories: []model.Category{model.CategoryDairy, model.CategoryBakery, model.CategorySnacks},
	}).Return(testRunResult(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?category=Dairy,Bakery&category=Snacks", nil)
	w := httptest.NewRecorder()

	h.Get(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp model.DashboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, model.DashboardSummary{Total: 3, High: 1, Medium: 1}, resp.Summary)
	assert.Equal(t, []model.Category{model.CategoryDairy, model.CategoryBakery}, resp.Categories)
	require.Len(t, resp.Records, 3)
	assert.Equal(t, "2026-10-17", resp.Records[0].ExpiryDate)
	assert.Equal(t, model.RiskHigh, resp.Records[0].RiskLevel)

	require.Len(t, resp.HighRisk, 1)
	assert.Equal(t, "Milk", resp.HighRisk[0].Product)

	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, "Milk", resp.Suggestions[0].Product)
	assert.Equal(t, "Bread", resp.Suggestions[1].Product)
	assert.Equal(t, model.SuggestionText, resp.Suggestions[1].Suggestion)

	assert.Equal(t, []model.RiskCount{
		{RiskLevel: model.RiskHigh, Count: 1},
		{RiskLevel: model.RiskMedium, Count: 1},
		{RiskLevel: model.RiskLow, Count: 1},
	}, resp.RiskDistribution)
	assert.Equal(t, model.SalesPoint{Product: "Bagel", WeeklySales: 35, PredictedDemand: 35}, resp.SalesVsPredicted[2])

	svc.AssertExpectations(t)
	sessions.AssertNotCalled(t, "Entries", mock.Anything)
}

func TestDashboardHandler_Get_WithSession(t *testing.T) {
	svc := new(MockInventoryService)
	sessions := new(MockSessionService)
	h := NewDashboardHandler(svc, sessions, zerolog.Nop())

	id := uuid.New()
	staged := []model.InventoryRecord{testRunResult().Records[2].InventoryRecord}
	sessions.On("Entries", id).Return(staged, nil)
	svc.On("Run", mock.Anything, service.RunRequest{Staged: staged}).Return(testRunResult(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?session="+id.String(), nil)
	w := httptest.NewRecorder()

	h.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestDashboardHandler_Get_Errors(t *testing.T) {
	known := uuid.New()

	tests := []struct {
		name           string
		query          string
		sessionErr     error
		runErr         error
		expectRun      bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Invalid session ID",
			query:          "?session=not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeSessionNotFound,
		},
		{
			name:           "Expired session",
			query:          "?session=" + known.String(),
			sessionErr:     model.ErrSessionNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeSessionNotFound,
		},
		{
			name:           "Store unavailable",
			runErr:         fmt.Errorf("failed to load inventory: %w", model.ErrStoreUnavailable),
			expectRun:      true,
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   model.ErrCodeStoreUnavailable,
		},
		{
			name:           "Empty dataset",
			runErr:         fmt.Errorf("failed to fit demand model: %w", &model.DataError{Field: "dataset", Err: model.ErrEmptyDataset}),
			expectRun:      true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeEmptyDataset,
		},
		{
			name:           "Malformed record",
			runErr:         &model.DataError{Row: 3, Field: "WeeklySales", Value: "x", Err: errors.New("invalid syntax")},
			expectRun:      true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidRecord,
		},
		{
			name:           "Unexpected error",
			runErr:         errors.New("boom"),
			expectRun:      true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockInventoryService)
			sessions := new(MockSessionService)
			h := NewDashboardHandler(svc, sessions, zerolog.Nop())

			if tt.sessionErr != nil {
				sessions.On("Entries", known).Return(nil, tt.sessionErr)
			}
			if tt.expectRun {
				svc.On("Run", mock.Anything, mock.Anything).Return(nil, tt.runErr)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil)
			w := httptest.NewRecorder()

			h.Get(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Error)

			if !tt.expectRun {
				svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDashboardHandler_Get_MalformedRecordMessage(t *testing.T) {
	svc := new(MockInventoryService)
	h := NewDashboardHandler(svc, new(MockSessionService), zerolog.Nop())

	svc.On("Run", mock.Anything, mock.Anything).
		Return(nil, &model.DataError{Row: 3, Field: "WeeklySales", Value: "x", Err: errors.New("invalid syntax")})

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Message, "row 3")
	assert.Contains(t, resp.Message, "WeeklySales")
}

const uploadCSV = `Product,Category,StockQty,WeeklySales,ExpiryDate,StoreID,Weather,HolidayFlag
Bananas,Fruits,80,64,2026-10-19,S02,Hot,0
Crackers,Snacks,50,20,2026-12-01,S03,Cloudy,1
`

func TestDashboardHandler_Upload(t *testing.T) {
	baseHasUpload := mock.MatchedBy(func(req service.RunRequest) bool {
		return len(req.Base) == 2 && req.Base[0].Product == "Bananas" &&
			len(req.Categories) == 1 && req.Categories[0] == model.CategoryFruits
	})

	t.Run("Raw CSV body", func(t *testing.T) {
		svc := new(MockInventoryService)
		h := NewDashboardHandler(svc, new(MockSessionService), zerolog.Nop())
		svc.On("Run", mock.Anything, baseHasUpload).Return(testRunResult(), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/dashboard/upload?category=Fruits", strings.NewReader(uploadCSV))
		req.Header.Set("Content-Type", "text/csv")
		w := httptest.NewRecorder()

		h.Upload(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Multipart form", func(t *testing.T) {
		svc := new(MockInventoryService)
		h := NewDashboardHandler(svc, new(MockSessionService), zerolog.Nop())
		svc.On("Run", mock.Anything, baseHasUpload).Return(testRunResult(), nil)

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "inventory.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(uploadCSV))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/dashboard/upload?category=Fruits", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()

		h.Upload(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Malformed CSV", func(t *testing.T) {
		svc := new(MockInventoryService)
		h := NewDashboardHandler(svc, new(MockSessionService), zerolog.Nop())

		body := strings.Replace(uploadCSV, "64", "sixty-four", 1)
		req := httptest.NewRequest(http.MethodPost, "/api/dashboard/upload", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), model.ErrCodeInvalidRecord)
		assert.Contains(t, w.Body.String(), "row 1")
		svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("Missing file part", func(t *testing.T) {
		svc := new(MockInventoryService)
		h := NewDashboardHandler(svc, new(MockSessionService), zerolog.Nop())

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("note", "no file"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/dashboard/upload", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()

		h.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})
}

func TestDashboardHandler_Export(t *testing.T) {
	svc := new(MockInventoryService)
	h := NewDashboardHandler(svc, new(MockSessionService), zerolog.Nop())

	svc.On("Run", mock.Anything, service.RunRequest{}).Return(testRunResult(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/export", nil)
	w := httptest.NewRecorder()

	h.Export(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=filtered_inventory.csv`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(inventorycsv.AnnotatedHeader, ","), lines[0])
	assert.Equal(t, "Milk,Dairy,100,10,2026-10-17,S01,Sunny,0,2,10.00,HIGH", lines[1])
}
