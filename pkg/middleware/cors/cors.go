package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/pkg/middleware/requestid"
)

// defaultOrigins is the school dashboard served from the municipal host.
// ALLOWED_ORIGINS overrides it; "*" opens the API up for local development.
var defaultOrigins = []string{"https://frequencia.lucena.pb.gov.br"}

// New returns middleware enforcing the configured origin allow-list.
func New(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}

	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[strings.TrimRight(origin, "/")]; ok || allowAll {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestid.Header)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
