package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/auth"
	"github.com/tair/field-service/pkg/database"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	store := memory.New()
	repo := store.Inventory()
	require.NoError(t, repo.SaveLocation(context.Background(), &domain.Location{
		Code: domain.DefaultLocation, Name: "Main warehouse", Kind: domain.LocationWarehouse,
	}))
	cat := catalog.NewStaticCatalog(
		catalog.Product{ID: 1, SKU: "CBL-01", Name: "Harness", IsActive: true},
		catalog.Product{ID: 2, SKU: "TRK-01", Name: "Tracker", Serialized: true, IsActive: true},
	)

	router := mux.NewRouter()
	NewInventoryHandler(repo, cat, database.NewRetrier(store, 0), kafka.NopPublisher{}).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, role string, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{UserID: 9, Username: "tester", Role: role}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestReceiveThenList(t *testing.T) {
	router := newRouter(t)

	rec, env := do(t, router, auth.RoleManager, "POST", "/api/inventory/receipts", map[string]interface{}{
		"product_id":   1,
		"batch_number": "B-1",
		"quantity":     12,
		"cost_basis":   "2.50",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, env = do(t, router, auth.RoleTechnician, "GET", "/api/inventory?product_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []domain.InventoryRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, 12, records[0].QuantityAvailable)

	rec, env = do(t, router, auth.RoleTechnician, "GET", "/api/inventory/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var record domain.InventoryRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, domain.DefaultLocation, record.Location)
}

func TestReceiveRequiresManager(t *testing.T) {
	router := newRouter(t)

	rec, _ := do(t, router, auth.RoleTechnician, "POST", "/api/inventory/receipts", map[string]interface{}{
		"product_id": 1, "batch_number": "B-1", "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReceiveSerializedNeedsIMEIs(t *testing.T) {
	router := newRouter(t)

	rec, env := do(t, router, auth.RoleManager, "POST", "/api/inventory/receipts", map[string]interface{}{
		"product_id": 2, "batch_number": "T-1", "quantity": 2, "imeis": []string{"350000000000001"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Kind)
}

func TestAdjustDecreaseBeyondStock(t *testing.T) {
	router := newRouter(t)

	rec, _ := do(t, router, auth.RoleManager, "POST", "/api/inventory/receipts", map[string]interface{}{
		"product_id": 1, "batch_number": "B-1", "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, router, auth.RoleManager, "POST", "/api/inventory/adjustments", map[string]interface{}{
		"product_id": 1, "adjustment_type": "DECREASE", "quantity": 5, "reason": "damaged",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var result struct {
		Applied int    `json:"applied"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 3, result.Applied)
	assert.NotEmpty(t, result.Warning)
}

func TestTransferUnknownLocation(t *testing.T) {
	router := newRouter(t)

	rec, _ := do(t, router, auth.RoleManager, "POST", "/api/inventory/receipts", map[string]interface{}{
		"product_id": 1, "batch_number": "B-1", "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, router, auth.RoleManager, "POST", "/api/inventory/transfers", map[string]interface{}{
		"product_id": 1, "from_location": "MAIN", "to_location": "NOWHERE", "quantity": 1,
	})
	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.False(t, env.Success)
}

func TestReservationOnUnknownRecord(t *testing.T) {
	router := newRouter(t)

	rec, env := do(t, router, auth.RoleTechnician, "POST", "/api/inventory/42/reservations", map[string]interface{}{
		"action": "RESERVE", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Kind)
}

func TestBadBodyAndPath(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest("POST", "/api/inventory/returns", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, auth.RoleTechnician, "GET", "/api/inventory?product_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocationsAndReport(t *testing.T) {
	router := newRouter(t)

	rec, env := do(t, router, auth.RoleManager, "POST", "/api/inventory/locations", map[string]interface{}{
		"code": "VAN-7", "name": "Van 7", "kind": "VAN",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, env = do(t, router, auth.RoleTechnician, "GET", "/api/inventory/locations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var locations []domain.Location
	require.NoError(t, json.Unmarshal(env.Data, &locations))
	assert.Len(t, locations, 2)

	rec, _ = do(t, router, auth.RoleTechnician, "GET", "/api/inventory/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reportContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}
