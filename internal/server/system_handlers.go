package server

import (
	"net/http"

	"github.com/mMando123/gym-management/internal/api"
	"github.com/mMando123/gym-management/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Run a maintenance sweep
// @Description  Triggers one scheduler job immediately instead of waiting
// @Description  for the next tick. Staff only.
// @Tags         system
// @Security     BearerAuth
// @Produce      json
// @Param        job path string true "Job name" Enums(expire_overdue, auto_unfreeze, close_stale_attendance, birthday_points)
// @Success      200 {object} api.SweepResultResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/sweeps/{job} [post]
func RunSweep(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		job := c.Param("job")
		result, ok := sched.Run(c.Request.Context(), job)
		if !ok {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "unknown sweep job: " + job})
			return
		}
		if result.Err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: result.Err.Error()})
			return
		}
		c.JSON(http.StatusOK, api.SweepResultResponse{Job: result.Job, Processed: result.Processed})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
