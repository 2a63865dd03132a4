package summary

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/fleetlab/fleet-analytics/internal/core/errors"
)

// RegisterRoutes registers the fleet summary routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/statistics/summary", s.LiveSummaryHandler)
	r.GET("/v1/statistics/summary/cached", s.CachedSummaryHandler)
}

// LiveSummaryHandler handles GET /v1/statistics/summary.
func (s *Service) LiveSummaryHandler(c *gin.Context) {
	resp, err := s.LiveSummary(c.Request.Context())
	if err != nil {
		slog.Error("[Summary] Live summary failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to build fleet summary",
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CachedSummaryHandler handles GET /v1/statistics/summary/cached.
func (s *Service) CachedSummaryHandler(c *gin.Context) {
	resp, err := s.CachedSummary(c.Request.Context())
	if err != nil {
		slog.Error("[Summary] Cached summary failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to build fleet summary",
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}
