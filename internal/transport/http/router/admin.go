// Package router assembles the ops API: a JWT guarded view over the ledger
// and its exports for operators outside the chat.
package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chatshop/internal/blob"
	"chatshop/internal/core/auth"
	"chatshop/internal/domain"
	"chatshop/internal/shop"
	mdw "chatshop/internal/transport/http/middleware"
	resp "chatshop/internal/transport/http/response"
)

type Deps struct {
	Log          *zap.Logger
	Shop         *shop.Service
	Images       blob.Storage // may be nil
	JWT          *auth.JWTer
	PasswordHash string
	Currency     domain.Currency
	// Ping reports the health of the backing stores.
	Ping func(ctx context.Context) error
}

func NewOpsEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(50, 100),
		mdw.ConcurrencyLimit(16),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(30*time.Second, d.Log),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				resp.Send(c, resp.Error(resp.CodeServerError, "unhealthy"))
				return
			}
		}
		resp.Send(c, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/admin/v1")
	public := v1.Group("", mdw.RateLimitPerIP(1, 5))
	mountAuthActions(public, d)

	ops := v1.Group("", mdw.AuthJWT(d.JWT, auth.RoleOps))
	mountLedgerActions(ops, d)
	mountExports(ops, d)
	return r
}
