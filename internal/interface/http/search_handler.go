package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/pkg/response"
)

type SearchHandler struct {
	Svc    *userapp.SearchService
	Logger *logrus.Logger
}

func NewSearchHandler(svc *userapp.SearchService, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{Svc: svc, Logger: logger}
}

// Search handles GET /users/search?q=&size=.
func (h *SearchHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))

	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if errors.Is(err, userapp.ErrSearchUnavailable) {
		response.Error[any](c, http.StatusServiceUnavailable, "search unavailable", nil)
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("q", q).Warn("user search failed")
		}
		response.Error[any](c, http.StatusBadGateway, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
