package analytics

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
	httperr "github.com/fleetlab/fleet-analytics/internal/core/errors"
)

const (
	msgReadBodyFailed   = "Failed to read request body"
	msgInvalidJSON      = "Invalid JSON body"
	msgPersistFailed    = "Failed to persist trip"
	msgStatisticsFailed = "Failed to load statistics"
)

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// RegisterRoutes registers the analytics API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/trips", s.IngestTripHandler)
	r.GET("/v1/vehicles/statistics", s.AllVehicleStatisticsHandler)
	r.GET("/v1/vehicles/:vehicle_id/statistics", s.VehicleStatisticsHandler)
	r.POST("/v1/vehicles/statistics/batch", s.BatchVehicleStatisticsHandler)
	r.POST("/v1/vehicles/:vehicle_id/statistics/recompute", s.RecomputeVehicleHandler)
}

// IngestTripHandler handles POST /v1/trips.
// The trip is durable once SaveTrip commits; a statistics-maintenance
// failure afterwards is logged and does not fail the request. The nightly
// batch or a manual recompute heals the lagging snapshot.
func (s *Service) IngestTripHandler(c *gin.Context) {
	trip, payloadSize, err := s.parseTrip(c)
	if err != nil {
		writeError(c, err)
		return
	}

	trip.ID = uuid.NewString()
	trip.IngestedAt = s.nowFn()

	slog.Info("Received trip",
		"trip_id", trip.ID,
		"vehicle_id", trip.VehicleID,
		"start_time", trip.StartTime,
		"payload_size", payloadSize)

	if persistErr := s.PersistTrip(c.Request.Context(), trip); persistErr != nil {
		slog.Error("Failed to persist trip", "error", persistErr, "trip_id", trip.ID)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		})
		return
	}

	statsUpdated := true
	if statsErr := s.OnTripIngested(c.Request.Context(), trip.VehicleID, trip.VehicleName); statsErr != nil {
		statsUpdated = false
		slog.Error("Trip persisted but statistics update failed",
			"error", statsErr,
			"trip_id", trip.ID,
			"vehicle_id", trip.VehicleID,
		)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":             "accepted",
		"trip_id":            trip.ID,
		"statistics_updated": statsUpdated,
	})
}

// parseTrip reads the raw request body and binds it into a TripRecord.
// Returns the parsed trip and the raw payload size (used for structured logging upstream).
func (s *Service) parseTrip(c *gin.Context) (*v1.TripRecord, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var trip v1.TripRecord
	if err := c.ShouldBindJSON(&trip); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	if err := trip.Validate(); err != nil {
		slog.Warn("Trip validation failed", "error", err, "vehicle_id", trip.VehicleID)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpTripValidationError,
			message:    err.Error(),
		}
	}

	return &trip, len(bodyBytes), nil
}

// VehicleStatisticsHandler handles GET /v1/vehicles/:vehicle_id/statistics.
func (s *Service) VehicleStatisticsHandler(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	resp, err := s.GetVehicleStatistics(c.Request.Context(), vehicleID)
	if err != nil {
		slog.Error("Failed to get vehicle statistics", "error", err, "vehicle_id", vehicleID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   msgStatisticsFailed,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AllVehicleStatisticsHandler handles GET /v1/vehicles/statistics.
func (s *Service) AllVehicleStatisticsHandler(c *gin.Context) {
	responses, err := s.GetAllVehicleStatistics(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list vehicle statistics", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   msgStatisticsFailed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": responses})
}

// BatchVehicleStatisticsHandler handles POST /v1/vehicles/statistics/batch.
func (s *Service) BatchVehicleStatisticsHandler(c *gin.Context) {
	var req BatchStatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   msgInvalidJSON,
			Details:   err.Error(),
		})
		return
	}

	responses := s.GetBatchVehicleStatistics(c.Request.Context(), req.VehicleIDs)
	c.JSON(http.StatusOK, gin.H{"vehicles": responses})
}

// RecomputeVehicleHandler handles POST /v1/vehicles/:vehicle_id/statistics/recompute.
// This is the synchronous operator action: unlike the background sweeps it
// surfaces failures.
func (s *Service) RecomputeVehicleHandler(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	if err := s.RecomputeVehicleNow(c.Request.Context(), vehicleID); err != nil {
		slog.Error("Manual statistics recompute failed", "error", err, "vehicle_id", vehicleID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to recompute vehicle statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recomputed", "vehicle_id": vehicleID})
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
