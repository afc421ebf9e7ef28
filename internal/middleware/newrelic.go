package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes annotates the nrgin transaction with the request ID and
// the signed-in user. It must run after nrgin.Middleware and RouteGuard.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if id := RequestIDFrom(c); id != "" {
			txn.AddAttribute("request.id", id)
		}
		if claims := ClaimsFrom(c); claims != nil {
			txn.AddAttribute("user.id", claims.ID())
			txn.AddAttribute("user.role", claims.Role)
		}

		c.Next()

		// Record error if present.
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
