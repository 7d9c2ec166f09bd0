package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/logger"
)

// Response 统一失败响应
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Success 写入 {"success": true, ...fields}
func Success(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	Error(c, errcode.Validation(message))
}

// Error renders err as {success:false, message} with its mapped status.
// Server-side failures are logged and reported to sentry.
func Error(c *gin.Context, err error) {
	e := errcode.From(err)
	status := e.Status()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.L().Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", string(e.Kind)),
			zap.Error(err),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Message: e.Message})
}
