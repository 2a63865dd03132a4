package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestTripHandler_Accepted(t *testing.T) {
	trips := &fakeTripStore{}
	svc := newTestService(trips, newFakeStatsStore())
	router := newTestRouter(svc)

	body := `{
		"vehicle_id": "veh-1",
		"vehicle_name": "Truck 1",
		"start_time": "2026-06-15T08:00:00Z",
		"end_time": "2026-06-15T08:45:00Z",
		"distance": "50.5"
	}`
	w := postJSON(t, router, "/v1/trips", body)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "accepted", resp["status"])
	require.NotEmpty(t, resp["trip_id"])
	require.Equal(t, true, resp["statistics_updated"])

	require.Len(t, trips.trips, 1)
	require.Equal(t, "veh-1", trips.trips[0].VehicleID)
	require.Equal(t, fixedNow(), trips.trips[0].IngestedAt)
}

func TestIngestTripHandler_InvalidJSON(t *testing.T) {
	svc := newTestService(&fakeTripStore{}, newFakeStatsStore())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/v1/trips", `{"vehicle_id": `)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_json")
}

func TestIngestTripHandler_ValidationFailure(t *testing.T) {
	svc := newTestService(&fakeTripStore{}, newFakeStatsStore())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/v1/trips", `{"start_time": "2026-06-15T08:00:00Z"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "trip_validation_failed")
	require.Contains(t, w.Body.String(), "vehicle_id is required")
}

func TestIngestTripHandler_OversizedBody(t *testing.T) {
	svc := newTestService(&fakeTripStore{}, newFakeStatsStore())
	router := newTestRouter(svc)

	padding := bytes.Repeat([]byte("x"), svc.maxBodySizeBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/v1/trips", bytes.NewReader(padding))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestIngestTripHandler_PersistFailure(t *testing.T) {
	trips := &fakeTripStore{saveErr: errors.New("disk full")}
	svc := newTestService(trips, newFakeStatsStore())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/v1/trips", `{
		"vehicle_id": "veh-1",
		"start_time": "2026-06-15T08:00:00Z"
	}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "internal_error")
}

func TestIngestTripHandler_StatsFailureStillAccepted(t *testing.T) {
	// SumDistance fails, so the statistics refresh fails after the trip has
	// already been persisted.
	trips := &fakeTripStore{sumErr: errors.New("db hiccup")}
	svc := newTestService(trips, newFakeStatsStore())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/v1/trips", `{
		"vehicle_id": "veh-1",
		"start_time": "2026-06-15T08:00:00Z"
	}`)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, false, resp["statistics_updated"])
	require.Len(t, trips.trips, 1)
}

func TestVehicleStatisticsHandler(t *testing.T) {
	trips := &fakeTripStore{}
	statsStore := newFakeStatsStore()
	svc := newTestService(trips, statsStore)
	router := newTestRouter(svc)

	require.NoError(t, trips.SaveTrip(context.Background(),
		makeTrip("veh-1", time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC), "50.50")))
	require.NoError(t, svc.OnTripIngested(context.Background(), "veh-1", "Truck veh-1"))

	req := httptest.NewRequest(http.MethodGet, "/v1/vehicles/veh-1/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp VehicleStatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "veh-1", resp.VehicleID)
	require.Equal(t, "2026-06", resp.YearMonth)
	require.Equal(t, int64(1), resp.MonthlyTrips)
	require.True(t, resp.MonthlyDistance.Equal(resp.TotalDistance))
}

func TestVehicleStatisticsHandler_UnknownVehicle(t *testing.T) {
	svc := newTestService(&fakeTripStore{}, newFakeStatsStore())
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/vehicles/ghost/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp VehicleStatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ghost", resp.VehicleID)
	require.Equal(t, int64(0), resp.TotalTrips)
}

func TestBatchVehicleStatisticsHandler_RequiresVehicleIDs(t *testing.T) {
	svc := newTestService(&fakeTripStore{}, newFakeStatsStore())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/v1/vehicles/statistics/batch", `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_json")
}

func TestBatchVehicleStatisticsHandler(t *testing.T) {
	svc := newTestService(&fakeTripStore{}, newFakeStatsStore())
	router := newTestRouter(svc)

	w := postJSON(t, router, "/v1/vehicles/statistics/batch", `{"vehicle_ids": ["a", "b", "c"]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Vehicles []VehicleStatisticsResponse `json:"vehicles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Vehicles, 3)
	require.Equal(t, "a", resp.Vehicles[0].VehicleID)
}

func TestRecomputeVehicleHandler(t *testing.T) {
	trips := &fakeTripStore{}
	statsStore := newFakeStatsStore()
	svc := newTestService(trips, statsStore)
	router := newTestRouter(svc)

	require.NoError(t, trips.SaveTrip(context.Background(),
		makeTrip("veh-1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), "25.00")))

	w := postJSON(t, router, "/v1/vehicles/veh-1/statistics/recompute", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "recomputed")

	record, err := statsStore.Get(context.Background(), "veh-1", "2026-06")
	require.NoError(t, err)
	require.Equal(t, int64(1), record.MonthlyTrips)
}
