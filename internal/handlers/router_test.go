package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/proworkshop/internal/auth"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/metrics"
	"github.com/ukydev/proworkshop/internal/middleware"
	"github.com/ukydev/proworkshop/internal/models"
	"github.com/ukydev/proworkshop/internal/monitoring"
)

// MockNotifier is a mock implementation of monitoring.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, alert models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type testAPI struct {
	handler  http.Handler
	store    *db.SQLiteStore
	auth     *auth.Service
	notifier *MockNotifier
}

func newTestAPI(t *testing.T, limiter *middleware.RateLimitMiddleware) *testAPI {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	svc, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	handler := NewRouter(Deps{
		Auth:      svc,
		Store:     store,
		Monitor:   monitoring.New(store.Assets(), store.Conditions(), notifier, logger),
		Options:   metrics.DefaultOptions(),
		Logger:    logger,
		RateLimit: limiter,
	})
	return &testAPI{handler: handler, store: store, auth: svc, notifier: notifier}
}

func (a *testAPI) token(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := a.auth.GenerateToken(&models.User{ID: 1, Username: "tester", Role: role})
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			payload.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&payload).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func createdID(t *testing.T, rr *httptest.ResponseRecorder) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[map[string]int64](t, rr)["id"]
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rr)["status"])
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_Guards(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name           string
		method         string
		path           string
		role           models.Role
		body           any
		expectedStatus int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/assets", expectedStatus: http.StatusUnauthorized},
		{name: "no token dashboard", method: http.MethodGet, path: "/api/dashboard", expectedStatus: http.StatusUnauthorized},
		{name: "viewer reads", method: http.MethodGet, path: "/api/assets", role: models.RoleViewer, expectedStatus: http.StatusOK},
		{name: "viewer cannot write", method: http.MethodPost, path: "/api/assets", role: models.RoleViewer, body: map[string]any{"name": "Lift"}, expectedStatus: http.StatusForbidden},
		{name: "technician cannot manage assets", method: http.MethodDelete, path: "/api/assets/1", role: models.RoleTechnician, expectedStatus: http.StatusForbidden},
		{name: "technician manages inventory", method: http.MethodPost, path: "/api/inventory", role: models.RoleTechnician, body: map[string]any{"item_name": "Filter", "quantity": 3}, expectedStatus: http.StatusCreated},
		{name: "viewer sees dashboard", method: http.MethodGet, path: "/api/dashboard", role: models.RoleViewer, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.role != "" {
				token = api.token(t, tt.role)
			}
			rr := api.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestRouter_AssetLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleManager)

	id := createdID(t, api.do(t, http.MethodPost, "/api/assets", token, map[string]any{
		"name": "Forklift", "type": "Vehicle", "status": "Active", "mileage": 1000,
	}))
	assert.Positive(t, id)

	rr := api.do(t, http.MethodGet, "/api/assets", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assets := decodeBody[[]models.Asset](t, rr)
	require.Len(t, assets, 1)
	assert.Equal(t, "Forklift", assets[0].Name)
	assert.Empty(t, assets[0].FuelLogs)

	path := "/api/assets/" + itoa(id)
	rr = api.do(t, http.MethodPut, path, token, map[string]any{"name": "Forklift 2", "status": "Under Maintenance"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Asset updated", decodeBody[map[string]string](t, rr)["message"])

	rr = api.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[models.Asset](t, rr)
	assert.Equal(t, "Forklift 2", got.Name)
	assert.Equal(t, "Under Maintenance", got.Status)

	rr = api.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Asset deleted", decodeBody[map[string]string](t, rr)["message"])

	rr = api.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Asset not found", decodeBody[map[string]string](t, rr)["error"])
}

func TestRouter_ResourceErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{name: "bad id", method: http.MethodGet, path: "/api/technicians/abc", expectedStatus: http.StatusBadRequest, expectedError: "invalid id"},
		{name: "zero id", method: http.MethodDelete, path: "/api/technicians/0", expectedStatus: http.StatusBadRequest, expectedError: "invalid id"},
		{name: "missing asset", method: http.MethodGet, path: "/api/assets/42", expectedStatus: http.StatusNotFound, expectedError: "Asset not found"},
		{name: "update missing", method: http.MethodPut, path: "/api/technicians/42", body: map[string]any{"name": "Sam"}, expectedStatus: http.StatusNotFound, expectedError: "Technician not found"},
		{name: "delete missing", method: http.MethodDelete, path: "/api/schedules/42", expectedStatus: http.StatusNotFound, expectedError: "Schedule not found"},
		{name: "invalid json", method: http.MethodPost, path: "/api/assets", body: "{", expectedStatus: http.StatusBadRequest, expectedError: "Invalid JSON"},
		{name: "asset name", method: http.MethodPost, path: "/api/assets", body: map[string]any{"name": "  "}, expectedStatus: http.StatusBadRequest, expectedError: "name is required"},
		{name: "work order description", method: http.MethodPost, path: "/api/work_orders", body: map[string]any{"priority": "High"}, expectedStatus: http.StatusBadRequest, expectedError: "description is required"},
		{name: "negative quantity", method: http.MethodPost, path: "/api/inventory", body: map[string]any{"item_name": "Belt", "quantity": -1}, expectedStatus: http.StatusBadRequest, expectedError: "quantity must not be negative"},
		{name: "negative gallons", method: http.MethodPost, path: "/api/assets", body: map[string]any{"name": "Van", "fuel_logs": []map[string]any{{"date": "2024-01-01", "gallons": 10}, {"date": "2024-01-08", "gallons": -4}}}, expectedStatus: http.StatusBadRequest, expectedError: "fuel log gallons must not be negative"},
		{name: "negative cost", method: http.MethodPost, path: "/api/work_orders", body: map[string]any{"description": "Refund", "cost": -25.5}, expectedStatus: http.StatusBadRequest, expectedError: "cost must not be negative"},
		{name: "schedule date", method: http.MethodPost, path: "/api/schedules", body: map[string]any{"maintenance_type": "Oil change"}, expectedStatus: http.StatusBadRequest, expectedError: "scheduled_date is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedError, decodeBody[map[string]string](t, rr)["error"])
		})
	}
}

func TestRouter_WorkOrderDefaults(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleTechnician)

	id := createdID(t, api.do(t, http.MethodPost, "/api/work_orders", token, map[string]any{"description": "Replace belt"}))

	rr := api.do(t, http.MethodGet, "/api/work_orders/"+itoa(id), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	wo := decodeBody[models.WorkOrder](t, rr)
	require.NotNil(t, wo.Cost)
	assert.Zero(t, *wo.Cost)
	assert.Equal(t, models.WorkOrderOpen, wo.Status)
}

func TestRouter_InventoryLowStockAlert(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleManager)

	id := createdID(t, api.do(t, http.MethodPost, "/api/inventory", token, map[string]any{
		"item_name": "Oil filter", "quantity": 2, "reorder_level": 5,
	}))

	api.notifier.AssertCalled(t, "Notify", mock.Anything, mock.MatchedBy(func(a models.Alert) bool {
		return a.Kind == models.AlertLowStock && a.EntityID == id
	}))

	rr := api.do(t, http.MethodPut, "/api/inventory/"+itoa(id), token, map[string]any{
		"item_name": "Oil filter", "quantity": 20, "reorder_level": 5,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	api.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestRouter_Boards(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleViewer)
	ctx := context.Background()

	assetID, err := api.store.Assets().Insert(ctx, models.Asset{Name: "Compressor"})
	require.NoError(t, err)
	techID, err := api.store.Technicians().Insert(ctx, models.Technician{Name: "Dana"})
	require.NoError(t, err)
	missing := int64(999)

	_, err = api.store.WorkOrders().Insert(ctx, models.WorkOrder{AssetID: &assetID, TechnicianID: &techID, Description: "Service"})
	require.NoError(t, err)
	_, err = api.store.WorkOrders().Insert(ctx, models.WorkOrder{AssetID: &missing, Description: "Orphan"})
	require.NoError(t, err)
	_, err = api.store.Schedules().Insert(ctx, models.Schedule{AssetID: &assetID, MaintenanceType: "Inspection", ScheduledDate: "2020-01-01", Status: models.SchedulePending})
	require.NoError(t, err)

	rr := api.do(t, http.MethodGet, "/api/work_orders/board", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rows := decodeBody[[]map[string]any](t, rr)
	require.Len(t, rows, 2)
	assert.Equal(t, "Compressor", rows[0]["asset_name"])
	assert.Equal(t, "Dana", rows[0]["technician_name"])
	assert.Equal(t, "Service", rows[0]["description"])
	assert.Equal(t, metrics.NoData, rows[1]["asset_name"])
	assert.Equal(t, metrics.NoData, rows[1]["technician_name"])

	rr = api.do(t, http.MethodGet, "/api/schedules/board", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	schedules := decodeBody[[]map[string]any](t, rr)
	require.Len(t, schedules, 1)
	assert.Equal(t, "Compressor", schedules[0]["asset_name"])
	assert.Equal(t, true, schedules[0]["overdue"])
}

func TestRouter_AssetMetrics(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleViewer)
	ctx := context.Background()

	mileage := int64(500)
	assetID, err := api.store.Assets().Insert(ctx, models.Asset{
		Name:     "Van",
		Mileage:  &mileage,
		FuelLogs: []models.FuelLog{{Gallons: 10}, {Gallons: 15}},
	})
	require.NoError(t, err)
	cost := 120.5
	_, err = api.store.WorkOrders().Insert(ctx, models.WorkOrder{AssetID: &assetID, Description: "Tyres", Cost: &cost})
	require.NoError(t, err)

	rr := api.do(t, http.MethodGet, "/api/assets/"+itoa(assetID)+"/metrics", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[map[string]any](t, rr)
	assert.Equal(t, 120.5, got["maintenance_cost"])
	assert.Equal(t, 100.0, got["utilization"])
	assert.Equal(t, 0.18, got["fuel_cost_per_mile"])

	rr = api.do(t, http.MethodGet, "/api/assets/77/metrics", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/metrics/assets", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rr), 1)
}

func TestRouter_UpcomingMaintenance(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleViewer)
	ctx := context.Background()

	soon := time.Now().UTC().Add(3 * 24 * time.Hour).Format("2006-01-02T15:04:05")
	later := time.Now().UTC().Add(30 * 24 * time.Hour).Format("2006-01-02T15:04:05")
	_, err := api.store.Assets().Insert(ctx, models.Asset{Name: "Soon", NextDue: soon})
	require.NoError(t, err)
	_, err = api.store.Assets().Insert(ctx, models.Asset{Name: "Later", NextDue: later})
	require.NoError(t, err)

	rr := api.do(t, http.MethodGet, "/api/assets/upcoming", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	due := decodeBody[[]models.Asset](t, rr)
	require.Len(t, due, 1)
	assert.Equal(t, "Soon", due[0].Name)
}

func TestRouter_Conditions(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleManager)
	ctx := context.Background()

	limit := 5.0
	assetID, err := api.store.Assets().Insert(ctx, models.Asset{Name: "Pump", VibrationThreshold: &limit})
	require.NoError(t, err)
	path := "/api/assets/" + itoa(assetID) + "/conditions"

	rr := api.do(t, http.MethodPost, path, token, map[string]any{"vibration": 7.2, "temperature": 40})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		Reading models.ConditionReading `json:"reading"`
		Alerts  []models.Alert          `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, assetID, created.Reading.AssetID)
	assert.False(t, created.Reading.RecordedAt.IsZero())
	require.Len(t, created.Alerts, 1)
	assert.Equal(t, models.AlertCondition, created.Alerts[0].Kind)

	rr = api.do(t, http.MethodPost, path, token, map[string]any{"vibration": 1.0, "temperature": 30, "recorded_at": "2024-01-01T00:00:00Z"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"alerts":[]`)

	rr = api.do(t, http.MethodGet, path+"?limit=1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	readings := decodeBody[[]models.ConditionReading](t, rr)
	require.Len(t, readings, 1)
	assert.Equal(t, 7.2, readings[0].Vibration)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{name: "missing temperature", method: http.MethodPost, path: path, body: map[string]any{"vibration": 1.0}, expectedStatus: http.StatusBadRequest},
		{name: "unknown asset", method: http.MethodPost, path: "/api/assets/999/conditions", body: map[string]any{"vibration": 1.0, "temperature": 2.0}, expectedStatus: http.StatusNotFound},
		{name: "bad limit", method: http.MethodGet, path: path + "?limit=abc", expectedStatus: http.StatusBadRequest},
		{name: "list unknown asset", method: http.MethodGet, path: "/api/assets/999/conditions", expectedStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestRouter_Dashboard(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleViewer)
	ctx := context.Background()

	mileage := int64(1000)
	assetID, err := api.store.Assets().Insert(ctx, models.Asset{Name: "Truck", Mileage: &mileage, FuelLogs: []models.FuelLog{{Gallons: 50}, {Gallons: 50}}})
	require.NoError(t, err)
	_, err = api.store.Assets().Insert(ctx, models.Asset{Name: "Crane"})
	require.NoError(t, err)
	techID, err := api.store.Technicians().Insert(ctx, models.Technician{Name: "Lee"})
	require.NoError(t, err)
	_, err = api.store.WorkOrders().Insert(ctx, models.WorkOrder{AssetID: &assetID, TechnicianID: &techID, Description: "Brakes", Status: models.WorkOrderOpen})
	require.NoError(t, err)
	_, err = api.store.WorkOrders().Insert(ctx, models.WorkOrder{AssetID: &assetID, TechnicianID: &techID, Description: "Lights", Status: models.WorkOrderCompleted,
		CreatedDate: "2024-01-01T08:00:00Z", CompletedDate: "2024-01-01T12:00:00Z"})
	require.NoError(t, err)
	reorder := 3
	_, err = api.store.Inventory().Insert(ctx, models.InventoryItem{ItemName: "Pads", Quantity: 1, ReorderLevel: &reorder})
	require.NoError(t, err)
	_, err = api.store.Schedules().Insert(ctx, models.Schedule{AssetID: &assetID, MaintenanceType: "Inspection", ScheduledDate: "2020-06-01", Status: models.SchedulePending})
	require.NoError(t, err)

	rr := api.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var d struct {
		TotalAssets        int     `json:"total_assets"`
		OpenWorkOrders     int     `json:"open_work_orders"`
		ActiveTechnicians  int     `json:"active_technicians"`
		OverdueCount       int     `json:"overdue_schedules"`
		LowInventoryCount  int     `json:"low_inventory_items"`
		TechnicianWorkload float64 `json:"technician_workload"`
		TechnicianStats    []struct {
			OpenTasks          int     `json:"open_tasks"`
			CompletedTasks     int     `json:"completed_tasks"`
			AvgCompletionHours float64 `json:"avg_completion_hours"`
		} `json:"technician_stats"`
		FuelEfficiency []struct {
			Name        string `json:"name"`
			CostPerMile any    `json:"cost_per_mile"`
		} `json:"fuel_efficiency"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))

	assert.Equal(t, 2, d.TotalAssets)
	assert.Equal(t, 1, d.OpenWorkOrders)
	assert.Equal(t, 1, d.ActiveTechnicians)
	assert.Equal(t, 1, d.OverdueCount)
	assert.Equal(t, 1, d.LowInventoryCount)
	assert.Equal(t, 1.0, d.TechnicianWorkload)
	require.Len(t, d.TechnicianStats, 1)
	assert.Equal(t, 1, d.TechnicianStats[0].OpenTasks)
	assert.Equal(t, 1, d.TechnicianStats[0].CompletedTasks)
	assert.Equal(t, 4.0, d.TechnicianStats[0].AvgCompletionHours)
	require.Len(t, d.FuelEfficiency, 2)
	assert.Equal(t, 0.35, d.FuelEfficiency[0].CostPerMile)
	assert.Equal(t, metrics.NoData, d.FuelEfficiency[1].CostPerMile)
}

func TestRouter_RateLimit(t *testing.T) {
	api := newTestAPI(t, middleware.NewRateLimitMiddleware(2, time.Minute))

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, api.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestRouter_RegisterLoginFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "workshop", "email": "shop@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	registered := decodeBody[models.LoginResponse](t, rr)
	assert.Equal(t, models.RoleManager, registered.User.Role)
	assert.Positive(t, registered.User.ID)
	assert.NotEmpty(t, registered.Token)

	rr = api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "workshop", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "workshop", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code)
	token := decodeBody[models.LoginResponse](t, rr).Token

	rr = api.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Token is valid", decodeBody[map[string]any](t, rr)["message"])

	rr = api.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]any{
		"current_password": "password123", "new_password": "newpassword456",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "workshop", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "workshop", "password": "newpassword456"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	profile := decodeBody[models.User](t, rr)
	assert.Equal(t, "shop@example.com", profile.Email)
	assert.NotNil(t, profile.LastLogin)
}

func TestRouter_RefreshFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()

	rr := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "nightshift", "password": "password123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	first := decodeBody[models.LoginResponse](t, rr)
	require.NotEmpty(t, first.RefreshToken)

	stored, err := api.store.Users().FindUserByID(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.HashRefreshToken(first.RefreshToken), stored.RefreshTokenHash)
	assert.NotContains(t, stored.RefreshTokenHash, first.RefreshToken)

	rr = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	second := decodeBody[models.LoginResponse](t, rr)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/auth/verify", second.Token, nil).Code)

	rr = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "a spent refresh token is rejected")
	assert.Equal(t, "Invalid refresh token", decodeBody[map[string]string](t, rr)["error"])

	rr = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, api.store.Users().SetRefreshToken(ctx, first.User.ID, auth.HashRefreshToken(second.RefreshToken), &past))
	rr = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": second.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Refresh token expired", decodeBody[map[string]string](t, rr)["error"])

	rr = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "nightshift", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code)
	third := decodeBody[models.LoginResponse](t, rr)

	rr = api.do(t, http.MethodPost, "/api/auth/logout", third.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": third.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "logout revokes the refresh token")
}

func TestRouter_ChangePasswordRevokesRefreshToken(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "dayshift", "password": "password123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	session := decodeBody[models.LoginResponse](t, rr)

	rr = api.do(t, http.MethodPost, "/api/auth/change-password", session.Token, map[string]any{
		"current_password": "password123", "new_password": "newpassword456",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_UserAdministration(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	users := api.store.Users()

	adminID, err := users.InsertUser(ctx, models.User{Username: "tester", PasswordHash: "h", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, int64(1), adminID, "api.token signs for user 1")
	viewerID, err := users.InsertUser(ctx, models.User{Username: "reader", PasswordHash: "h", Role: models.RoleViewer})
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour)
	require.NoError(t, users.SetRefreshToken(ctx, viewerID, "reader-digest", &expires))

	admin := api.token(t, models.RoleAdmin)
	manager := api.token(t, models.RoleManager)
	path := "/api/users/" + itoa(viewerID)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/users", manager, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPut, path, manager, map[string]any{"role": "admin"}).Code)

	rr := api.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	listed := decodeBody[[]models.User](t, rr)
	require.Len(t, listed, 2)
	assert.NotContains(t, rr.Body.String(), "reader-digest")

	rr = api.do(t, http.MethodPut, path, admin, map[string]any{"role": "technician"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, models.RoleTechnician, decodeBody[models.User](t, rr).Role)

	rr = api.do(t, http.MethodPut, path, admin, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated, err := users.FindUserByID(ctx, viewerID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.RoleTechnician, updated.Role)
	assert.Empty(t, updated.RefreshTokenHash, "deactivation revokes the refresh token")

	tests := []struct {
		name           string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{name: "own account", path: "/api/users/" + itoa(adminID), body: map[string]any{"is_active": false}, expectedStatus: http.StatusBadRequest, expectedError: "Cannot change your own role or status"},
		{name: "bad role", path: path, body: map[string]any{"role": "owner"}, expectedStatus: http.StatusBadRequest, expectedError: "Invalid role"},
		{name: "missing user", path: "/api/users/99", body: map[string]any{"role": "viewer"}, expectedStatus: http.StatusNotFound, expectedError: "User not found"},
		{name: "bad id", path: "/api/users/x", body: map[string]any{"role": "viewer"}, expectedStatus: http.StatusBadRequest, expectedError: "invalid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPut, tt.path, admin, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedError, decodeBody[map[string]string](t, rr)["error"])
		})
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
