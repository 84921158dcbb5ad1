package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pty0735/routinely/internal/auth"
	"github.com/pty0735/routinely/internal/config"
)

// NewRouter assembles the gin engine: open endpoints first, then the
// authenticated API surface.
func NewRouter(app App, provider auth.Provider, cfg *config.Config) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", MetricsHandler())

	protected := r.Group("/api")
	protected.Use(auth.AuthMiddleware(provider, cfg))
	protected.POST("/goals", PostGoal(app))
	protected.GET("/goals", GetGoals(app))
	protected.GET("/goals/:goalId", GetGoal(app))
	protected.DELETE("/goals/:goalId", DeleteGoal(app))
	protected.POST("/goals/:goalId/routines", PostRoutines(app))
	protected.PUT("/routines/:routineId/progress", PutRoutineProgress(app))
	protected.DELETE("/routines/:routineId", DeleteRoutine(app))
	protected.GET("/user/profile", GetProfile(app))

	return r
}
