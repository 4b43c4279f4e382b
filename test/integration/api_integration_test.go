package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecostock/internal/handler"
	"ecostock/internal/metrics"
	"ecostock/internal/model"
	"ecostock/internal/repository"
	"ecostock/internal/router"
	"ecostock/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T, repo repository.InventoryRepository) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	m := metrics.New()

	// Initialize services
	inventoryService := service.NewInventoryService(repo, logger,
		service.WithClock(func() time.Time { return today }),
		service.WithMetrics(m),
	)
	sessionStore := service.NewSessionStore(time.Hour, logger)

	// Initialize handlers
	dashboardHandler := handler.NewDashboardHandler(inventoryService, sessionStore, logger)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)
	sessionHandler := handler.NewSessionHandler(inventoryService, sessionStore, logger)

	// Create router
	return router.New(dashboardHandler, inventoryHandler, sessionHandler, m, logger)
}

func do(t *testing.T, server http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func dashboard(t *testing.T, server http.Handler, query string) model.DashboardResponse {
	t.Helper()

	w := do(t, server, http.MethodGet, "/api/dashboard"+query, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.DashboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

const newRecordJSON = `{
	"product": "Oat Milk",
	"category": "Beverages",
	"stockQty": 90,
	"weeklySales": 40,
	"expiryDate": "2026-10-30",
	"storeId": "S03",
	"weather": "Cloudy",
	"holidayFlag": false
}`

// exerciseAPI runs the same end-to-end flow against any seeded store.
func exerciseAPI(t *testing.T, server http.Handler, seeded int) {
	t.Run("Dashboard covers every stored record", func(t *testing.T) {
		resp := dashboard(t, server, "")

		assert.Equal(t, seeded, resp.Summary.Total)
		assert.False(t, resp.Fallback)
		assert.Len(t, resp.Categories, len(model.Categories))
		assert.Equal(t, resp.Summary.High+resp.Summary.Medium, len(resp.Suggestions))

		sum := 0
		for _, rc := range resp.RiskDistribution {
			sum += rc.Count
		}
		assert.Equal(t, seeded, sum)
	})

	t.Run("Category filter and empty selection", func(t *testing.T) {
		dairy := dashboard(t, server, "?category=Dairy")
		assert.Equal(t, 8, dairy.Summary.Total)
		for _, row := range dairy.Records {
			assert.Equal(t, model.CategoryDairy, row.Category)
		}

		all := dashboard(t, server, "")
		empty := dashboard(t, server, "?category=")
		assert.Equal(t, all.Records, empty.Records)
	})

	t.Run("Repeated runs are identical", func(t *testing.T) {
		assert.Equal(t, dashboard(t, server, ""), dashboard(t, server, ""))
	})

	t.Run("Staged entries join runs without being stored", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/sessions", "")
		require.Equal(t, http.StatusCreated, w.Code)
		var sess model.SessionResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&sess))

		w = do(t, server, http.MethodPost, "/api/sessions/"+sess.ID+"/entries", newRecordJSON)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		withSession := dashboard(t, server, "?session="+sess.ID)
		assert.Equal(t, seeded+1, withSession.Summary.Total)
		assert.Equal(t, "Oat Milk", withSession.Records[seeded].Product)
		assert.Equal(t, 14, withSession.Records[seeded].DaysToExpire)

		assert.Equal(t, seeded, dashboard(t, server, "").Summary.Total)

		w = do(t, server, http.MethodDelete, "/api/sessions/"+sess.ID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, server, http.MethodGet, "/api/dashboard?session="+sess.ID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Add then delete round trip", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/inventory", newRecordJSON)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, seeded+1, dashboard(t, server, "").Summary.Total)

		w = do(t, server, http.MethodDelete, "/api/inventory?product=Oat+Milk&category=Beverages&store=S03&expiry=2026-10-30", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"removed":1}`, w.Body.String())

		w = do(t, server, http.MethodDelete, "/api/inventory?product=Oat+Milk&category=Beverages&store=S03&expiry=2026-10-30", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"removed":0}`, w.Body.String())

		assert.Equal(t, seeded, dashboard(t, server, "").Summary.Total)
	})

	t.Run("Invalid entry is rejected", func(t *testing.T) {
		body := strings.Replace(newRecordJSON, `"Beverages"`, `"Frozen"`, 1)
		w := do(t, server, http.MethodPost, "/api/inventory", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), model.ErrCodeInvalidRecord)
	})

	t.Run("Export", func(t *testing.T) {
		w := do(t, server, http.MethodGet, "/api/inventory/export?category=Fruits", "")
		require.Equal(t, http.StatusOK, w.Code)

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		assert.Len(t, lines, 9)
		assert.True(t, strings.HasSuffix(lines[0], "DaysToExpire,PredictedDemand,RiskLevel"))
	})

	t.Run("Metrics", func(t *testing.T) {
		w := do(t, server, http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `ecostock_pipeline_runs_total{outcome="success"}`)
		assert.Contains(t, w.Body.String(), `ecostock_store_writes_total{operation="delete",status="ok"} 2`)
	})
}

func TestAPI_CSVStore_Integration(t *testing.T) {
	repo := repository.NewCSVRepository(filepath.Join(t.TempDir(), "inventory.csv"), zerolog.Nop())
	seeded := SeedInventory(t, repo)
	server := setupTestServer(t, repo)

	exerciseAPI(t, server, seeded)
}

func TestAPI_PostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	CleanupDB(t, testDB.Pool)

	repo := repository.NewPostgresRepository(testDB.Pool, zerolog.Nop())
	seeded := SeedInventory(t, repo)
	server := setupTestServer(t, repo)

	exerciseAPI(t, server, seeded)
}

func TestAPI_MissingStoreFallsBack_Integration(t *testing.T) {
	repo := repository.NewCSVRepository(filepath.Join(t.TempDir(), "absent.csv"), zerolog.Nop())
	server := setupTestServer(t, repo)

	resp := dashboard(t, server, "")

	assert.True(t, resp.Fallback)
	assert.Equal(t, 48, resp.Summary.Total)
}

func TestCORS_Integration(t *testing.T) {
	repo := repository.NewCSVRepository(filepath.Join(t.TempDir(), "inventory.csv"), zerolog.Nop())
	server := setupTestServer(t, repo)

	req := httptest.NewRequest(http.MethodOptions, "/api/inventory", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
