package handlers

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/pkg/response"
	"github.com/enterprise/user-service/pkg/validation"
)

// userStats is published under /debug/vars.
var userStats = expvar.NewMap("users")

// EventPublisher receives user lifecycle events after successful writes.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type UserHandler struct {
	Svc    *userapp.Service
	Pub    EventPublisher // optional
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, pub EventPublisher, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Pub: pub, Logger: logger}
}

// userRequest is the body of create and update. Active defaults to true when omitted.
type userRequest struct {
	Name   string `json:"name" binding:"required,min=2,max=50"`
	Email  string `json:"email" binding:"required,email,max=255"`
	Active *bool  `json:"active"`
}

func (r userRequest) toEntity() *entity.User {
	u := entity.NewUser(r.Name, r.Email)
	if r.Active != nil {
		u.Active = *r.Active
	}
	return u
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), req.toEntity())
	if err != nil {
		h.fail(c, err, "create user")
		return
	}
	userStats.Add("created", 1)
	h.publish(c, entity.NewUserEvent(entity.UserCreated, u))
	response.Success(c, http.StatusCreated, u, "user created", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.FindAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list users")
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, found, err := h.Svc.FindByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get user")
		return
	}
	if !found {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), id, req.toEntity())
	if err != nil {
		h.fail(c, err, "update user")
		return
	}
	userStats.Add("updated", 1)
	h.publish(c, entity.NewUserEvent(entity.UserUpdated, u))
	response.Success(c, http.StatusOK, u, "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete user")
		return
	}
	userStats.Add("deleted", 1)
	h.publish(c, entity.NewUserEvent(entity.UserDeleted, &entity.User{ID: id}))
	c.Status(http.StatusNoContent)
}

// pathID parses :id and writes a 400 when it is not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// fail maps service errors onto HTTP statuses.
func (h *UserHandler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, userapp.ErrDuplicateEmail):
		response.Error[any](c, http.StatusBadRequest, "email already exists", map[string]string{"email": "is already in use"})
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(op + " failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

// publish sends ev without failing the request; errors are only logged.
func (h *UserHandler) publish(c *gin.Context, ev entity.UserEvent) {
	if h.Pub == nil {
		return
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), ev); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{"type": ev.Type, "user_id": ev.UserID}).Warn("failed to publish user event")
	}
}
