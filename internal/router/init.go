package router

import (
	"github.com/gin-gonic/gin"

	"github.com/enterprise/user-service/internal/container"
	handlers "github.com/enterprise/user-service/internal/interface/http"
	"github.com/enterprise/user-service/internal/interface/middleware"
	"github.com/enterprise/user-service/internal/router/modules"
)

// eventPublisher keeps a nil *RabbitPublisher from becoming a non-nil interface.
func eventPublisher(c *container.Container) handlers.EventPublisher {
	if c.RabbitPub == nil {
		return nil
	}
	return c.RabbitPub
}

// InitModules builds the handlers from the container and adds every module to r.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	userHandler := handlers.NewUserHandler(c.Users, eventPublisher(c), c.Logger)
	searchHandler := handlers.NewSearchHandler(c.Search, c.Logger)
	healthHandler := handlers.NewHealthHandler(c.Users, c.Logger)

	perMinute := 0
	if cfg.RateLimitEnabled {
		perMinute = cfg.RateLimitPerMinute
	}

	r.Add(&modules.PublicModule{Health: healthHandler, DebugMetrics: cfg.DebugMetricsEnabled})
	r.Add(&modules.UserModule{
		Handler:      userHandler,
		Search:       searchHandler,
		Auth:         c.Auth,
		Realm:        cfg.AppName,
		Limiter:      middleware.NewRedisCounter(c.Redis),
		PerMinute:    perMinute,
		TrustPrivate: cfg.RateLimitTrustPrivate,
	})
}

// New returns a fully wired engine: recovery, request ids, real IP, secure
// channel, CORS, optional access log and all modules.
func New(c *container.Container, extra ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(extra...)

	reg := NewRegistry(engine)
	InitModules(reg, c)
	reg.RegisterAll()
	return engine
}
