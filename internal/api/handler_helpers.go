package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/response"
)

// HandleError logs the full error with its request id and answers with the
// taxonomy-mapped status and a short message, nothing internal.
func HandleError(c *gin.Context, logger internal.Logger, err error) {
	requestID := c.GetString(requestIDKey)
	logger.Errorf("[request_id=%s] %v", requestID, err)
	c.JSON(internal.StatusOf(err), response.FromError(err))
}

func HandleSuccess(c *gin.Context, logger internal.Logger, status int, data interface{}, meta map[string]any) {
	requestID := c.GetString(requestIDKey)
	logger.Infof("[request_id=%s] %s %s -> %d", requestID, c.Request.Method, c.FullPath(), status)
	c.JSON(status, response.Success(data, meta))
}

func currentUser(c *gin.Context) *internal.User {
	return c.MustGet("user").(*internal.User)
}
