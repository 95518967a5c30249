package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"

	handlers "github.com/enterprise/user-service/internal/interface/http"
)

// PublicModule registers the unauthenticated /api/public routes.
type PublicModule struct {
	Health       *handlers.HealthHandler
	DebugMetrics bool
}

func (m *PublicModule) Register(rg *gin.RouterGroup) {
	public := rg.Group("/public")
	public.GET("/health", m.Health.Health)
	if m.DebugMetrics {
		public.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}
}
