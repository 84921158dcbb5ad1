package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/service"
)

func PostGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.CreateGoalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), internal.NewValidationError("invalid JSON body", err))
			return
		}

		result, err := service.CreateGoal(c.Request.Context(), app.Deps(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusCreated, result, nil)
	}
}

func GetGoals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		categorized, err := service.ListGoals(c.Request.Context(), app.Deps(), user)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}

		if status := c.Query("status"); status != "" {
			goals := categorized.Filtered(status)
			if goals == nil {
				goals = []internal.GoalSummary{}
			}
			HandleSuccess(c, app.Logger(), http.StatusOK, goals, nil)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, categorized, nil)
	}
}

func GetGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		detail, err := service.GetGoalDetail(c.Request.Context(), app.Deps(), user, c.Param("goalId"))
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, detail, nil)
	}
}

func DeleteGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		if err := service.DeleteGoal(c.Request.Context(), app.Deps(), user, c.Param("goalId")); err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, nil, map[string]any{"message": "goal deleted"})
	}
}
