// Command ops serves the operator API over the shop database.
//
//	ops            serve on app.ops
//	ops -hash pw   print the bcrypt hash to put in ops.passwordhash
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"chatshop/internal/blob"
	"chatshop/internal/core/auth"
	"chatshop/internal/core/cache"
	"chatshop/internal/core/config"
	"chatshop/internal/core/database"
	"chatshop/internal/core/logger"
	"chatshop/internal/core/server"
	"chatshop/internal/domain"
	"chatshop/internal/shop"
	"chatshop/internal/transport/http/router"
	"chatshop/pkg/utils"
)

func main() {
	hash := flag.String("hash", "", "print the bcrypt hash of a password and exit")
	flag.Parse()
	if *hash != "" {
		h, err := utils.HashPassword(*hash)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	if cfg.Ops.PasswordHash == "" || cfg.JWT.Secret == "" {
		log.Fatal("ops.passwordhash and jwt.secret are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := mustOpenDB(cfg, log)
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(domain.Models()...); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
	}
	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
	}
	images, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("image storage", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("db handle", zap.Error(err))
	}
	engine := router.NewOpsEngine(router.Deps{
		Log:    log.Named("ops"),
		Shop:   shop.New(db, shop.WithCache(rc, time.Duration(cfg.Redis.TTLSec)*time.Second), shop.WithLogger(log.Named("shop"))),
		Images: images,
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
		PasswordHash: cfg.Ops.PasswordHash,
		Currency:     domain.Currency{Code: cfg.Payments.CurrencyCode, Exponent: cfg.Payments.CurrencyExp, Symbol: cfg.Payments.CurrencySymbol},
		Ping: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return rc.Ping(ctx)
		},
	})

	srv := server.FromConfig(cfg.App.Ops, engine)
	host := cfg.App.Ops.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.App.Ops.Port))
	log.Info("ops api starting",
		zap.String("addr", srv.Addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)
	if err := server.Serve(ctx, srv, 10*time.Second, log); err != nil {
		log.Error("ops api stopped with error", zap.Error(err))
		return
	}
	log.Info("ops api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel),
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))
	return db
}
