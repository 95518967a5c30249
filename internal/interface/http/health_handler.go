package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/pkg/response"
)

type HealthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewHealthHandler(svc *userapp.Service, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Svc: svc, Logger: logger}
}

// Health reports whether the user store answers within two seconds.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Svc.Ping(ctx); err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("health check failed")
		}
		response.Error[any](c, http.StatusServiceUnavailable, "store unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy", nil)
}
