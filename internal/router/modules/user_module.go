package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enterprise/user-service/internal/application"
	handlers "github.com/enterprise/user-service/internal/interface/http"
	"github.com/enterprise/user-service/internal/interface/middleware"
)

// UserModule wires the user CRUD and search routes behind Basic auth:
//
//	POST   /api/users
//	GET    /api/users
//	GET    /api/users/search
//	GET    /api/users/:id
//	PUT    /api/users/:id
//	DELETE /api/users/:id
type UserModule struct {
	Handler *handlers.UserHandler
	Search  *handlers.SearchHandler
	Auth    *application.AuthService
	Realm   string

	// Rate limiting is skipped when Limiter is nil or PerMinute is zero.
	Limiter      middleware.Counter
	PerMinute    int
	TrustPrivate bool
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	var allow middleware.AllowFunc
	if m.TrustPrivate {
		allow = middleware.AllowPrivateIP()
	}

	// The IP limiter runs before BasicAuth so failed credentials are counted too.
	users := rg.Group("/users")
	users.Use(
		middleware.RateLimit(m.Limiter, m.PerMinute*3, time.Minute, middleware.KeyByIP(), allow),
		middleware.BasicAuth(m.Auth, m.Realm),
		middleware.RateLimit(m.Limiter, m.PerMinute, time.Minute, middleware.KeyByUsername(), allow),
	)
	{
		users.POST("", m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/search", m.Search.Search)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
