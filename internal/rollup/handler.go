package rollup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/fleetlab/fleet-analytics/internal/core/errors"
)

// RegisterRoutes registers the manual batch trigger routes.
// These run the same sweeps the scheduler fires, synchronously, and surface
// failures to the caller.
func (o *Orchestrator) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/batch/daily", o.triggerHandler("daily", o.RunDailyBatch))
	r.POST("/v1/batch/weekly", o.triggerHandler("weekly", o.RunWeeklyBatch))
	r.POST("/v1/batch/monthly", o.triggerHandler("monthly", o.RunMonthlyBatch))
}

func (o *Orchestrator) triggerHandler(name string, run func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := run(c.Request.Context()); err != nil {
			slog.Error("[Batch] Manual batch trigger failed", "batch", name, "error", err)
			c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Batch run failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed", "batch": name})
	}
}
