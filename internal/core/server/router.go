// Package server builds the HTTP servers the binaries expose next to their
// main work: the bot's metrics endpoint and the ops API listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chatshop/internal/core/config"
)

// NewRouter returns an engine with access logging, panic recovery and CORS.
func NewRouter(l *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(l, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(l, true))
	r.Use(cors.Default())
	return r
}

// MetricsRouter serves /metrics and a liveness check.
func MetricsRouter(l *zap.Logger) *gin.Engine {
	r := NewRouter(l.Named("metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20,
	}
}

// FromConfig builds a server for one http section; zero timeouts get defaults.
func FromConfig(c config.HTTP, handler http.Handler) *http.Server {
	return BuildServer(Addr(c.Host, c.Port), handler,
		seconds(c.ReadTimeoutSec, 5), seconds(c.WriteTimeoutSec, 30), seconds(c.IdleTimeoutSec, 60))
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }

// Serve runs srv until ctx is done, then shuts it down within grace.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration, l *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		l.Info("http starting", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http %s shutdown: %w", srv.Addr, err)
	}
	l.Info("http stopped", zap.String("addr", srv.Addr))
	return nil
}
