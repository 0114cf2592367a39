package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matching-workers/internal/common/logger"
)

// SetupRouter wires the matching API, probes and the Prometheus endpoint.
func SetupRouter(mode string, matcher Matcher, checks []ReadinessCheck, log logger.Logger) *gin.Engine {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	handler := NewHandler(matcher, checks, log)

	r.GET("/health", handler.HealthCheck)
	r.GET("/ready", handler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/matching-scores", handler.CalculateScores)
		v1.GET("/projects/:project_id/matching-scores", handler.GetProjectScores)
	}

	return r
}
