package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/storefront-auth/pkg/response"
)

// AllowFunc decides whether a request may pass a gate.
type AllowFunc func(*gin.Context) bool

// AllowPrivateIP allows loopback and private (10/8, 172.16/12, 192.168/16,
// fc00::/7) peers. It looks at the socket address only; forwarding headers
// are client-controlled and ignored here.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(c.RemoteIP())
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// Gate answers 403 to requests allow rejects.
func Gate(allow AllowFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allow == nil || !allow(c) {
			response.Abort(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		c.Next()
	}
}
