package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireSecureChannel redirects to https when a proxy reports, through
// X-Forwarded-Proto, that the client connected over plain http. Requests
// without the header are served as-is.
func RequireSecureChannel() gin.HandlerFunc {
	return func(c *gin.Context) {
		proto := c.GetHeader("X-Forwarded-Proto")
		if proto == "" || strings.EqualFold(strings.TrimSpace(strings.Split(proto, ",")[0]), "https") {
			c.Next()
			return
		}

		// X-Forwarded-Host is client controlled; only the Host the proxy
		// routed on is used for the redirect.
		target := "https://" + c.Request.Host + c.Request.URL.RequestURI()

		status := http.StatusTemporaryRedirect
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			status = http.StatusMovedPermanently
		}
		c.Redirect(status, target)
		c.Abort()
	}
}
