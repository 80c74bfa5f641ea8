package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/pkg/response"
)

// Recovery turns a panic into the generic 500 envelope and logs it.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"panic":      recovered,
				"path":       c.Request.URL.Path,
				"request_id": c.GetString("request_id"),
			}).Error("panic recovered")
		}
		response.Abort(c, http.StatusInternalServerError, apperror.MsgUnexpected, nil)
	})
}
