package middleware

import (

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "chatshop/internal/transport/http/response"
)

// ConcurrencyLimit caps the requests in flight; exports hold a database
// connection for their whole duration.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c, 1); err != nil {
			resp.Abort(c, resp.Error(resp.CodeServerError, "server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
