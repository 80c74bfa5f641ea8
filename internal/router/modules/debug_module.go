package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/storefront-auth/internal/interface/middleware"
)

// DebugModule exposes expvar (workflow counters included) to private
// addresses only.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/debug/vars", middleware.Gate(middleware.AllowPrivateIP()), gin.WrapH(expvar.Handler()))
}
