package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/pkg/response"
)

// Gin context keys set by BasicAuth.
const (
	CtxUsernameKey = "username"
	CtxRolesKey    = "roles"
)

// BasicAuth requires a valid HTTP Basic credential for every request.
// On success it sets username and roles in the Gin context.
func BasicAuth(auth *application.AuthService, realm string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", challenge)
			response.Abort(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		acc, err := auth.Authenticate(username, password)
		if err != nil {
			c.Header("WWW-Authenticate", challenge)
			response.Abort(c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		c.Set(CtxUsernameKey, acc.Username)
		c.Set(CtxRolesKey, acc.Roles)
		c.Next()
	}
}
