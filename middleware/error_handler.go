package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wellness-step-by-step/client-form/utils"
)

// ErrorHandler logs errors handlers attached with c.Error and reports them
// to Sentry once the request is done.
func ErrorHandler(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			fields := map[string]interface{}{
				"endpoint": c.Request.URL.Path,
				"method":   c.Request.Method,
				"status":   c.Writer.Status(),
			}
			logger.WithFields(logrus.Fields(fields)).WithError(ginErr.Err).Error("request failed")
			utils.CaptureError(ginErr.Err, fields)
		}
	}
}
