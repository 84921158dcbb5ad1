package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/service"
)

func PutRoutineProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.UpdateProgressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), internal.NewValidationError("invalid JSON body", err))
			return
		}

		if err := service.UpdateRoutineProgress(c.Request.Context(), app.Deps(), user, c.Param("routineId"), &req); err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, nil, map[string]any{"message": "progress updated"})
	}
}

func PostRoutines(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.ReplaceRoutinesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), internal.NewValidationError("invalid JSON body", err))
			return
		}

		count, err := service.ReplaceRoutines(c.Request.Context(), app.Deps(), user, c.Param("goalId"), &req)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, nil, map[string]any{"routines_created": count})
	}
}

func DeleteRoutine(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		if err := service.DeleteRoutine(c.Request.Context(), app.Deps(), user, c.Param("routineId")); err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, nil, map[string]any{"message": "routine deleted"})
	}
}

func GetProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		profile, err := service.GetProfile(c.Request.Context(), app.Deps(), user)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, profile, nil)
	}
}
