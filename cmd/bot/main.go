// Command bot runs the chat storefront: it polls the chat platform and gives
// every private chat its own conversation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"chatshop/internal/actor"
	"chatshop/internal/blob"
	"chatshop/internal/core/cache"
	"chatshop/internal/core/config"
	"chatshop/internal/core/database"
	"chatshop/internal/core/logger"
	"chatshop/internal/core/server"
	"chatshop/internal/dispatcher"
	"chatshop/internal/domain"
	"chatshop/internal/events"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := mustOpenDB(cfg, log)
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(domain.Models()...); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, catalog reads go to the database", zap.Error(err))
		}
	}
	svc := shop.New(db,
		shop.WithCache(rc, time.Duration(cfg.Redis.TTLSec)*time.Second),
		shop.WithLogger(log.Named("shop")),
	)
	// no conversation survives a restart, so neither does live mode
	if err := svc.ResetLiveModes(ctx); err != nil {
		log.Fatal("reset live modes", zap.Error(err))
	}

	bundle, err := i18n.Load(cfg.Language.Enabled, cfg.Language.Fallback)
	if err != nil {
		log.Fatal("load translations", zap.Error(err))
	}

	_ = tgbotapi.SetLogger(logger.ToStdLogger(log.Named("tgbotapi"), zapcore.DebugLevel))
	tg, err := chat.NewTelegramClient(chat.TelegramOptions{
		Token:    cfg.Telegram.Token,
		SendRate: cfg.Telegram.SendRatePerSec,
		Burst:    cfg.Telegram.SendBurst,
		Log:      log.Named("telegram"),
	})
	if err != nil {
		log.Fatal("telegram client", zap.Error(err))
	}

	images, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("image storage", zap.Error(err))
	}
	pub, err := events.New(cfg.Kafka, log.Named("events"))
	if err != nil {
		log.Fatal("event publisher", zap.Error(err))
	}
	defer pub.Close()

	deps := actor.Deps{
		Transport: tg,
		Shop:      svc,
		Bundle:    bundle,
		Images:    images,
		Events:    pub,
		Settings:  actor.NewSettings(cfg),
		Log:       log.Named("actor"),
	}
	spawn := func(chatID int64, from chat.User) dispatcher.Conversation {
		return actor.New(chatID, from, deps)
	}
	d := dispatcher.New(tg, tg, spawn, bundle.Localizer(cfg.Language.Default, nil), dispatcher.Options{
		PollTimeout: cfg.Telegram.PollTimeout(),
		RetryDelay:  time.Duration(cfg.Telegram.ErrorRetrySec) * time.Second,
		Log:         log,
	})

	log.Info("bot starting",
		zap.String("username", tg.Username()),
		zap.String("db", cfg.DB.Driver),
		zap.Stringer("images", images),
		zap.Strings("languages", bundle.Enabled()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Run(gctx) })
	if cfg.App.Metrics.Port > 0 {
		srv := server.FromConfig(cfg.App.Metrics, server.MetricsRouter(log))
		g.Go(func() error { return server.Serve(gctx, srv, 5*time.Second, log) })
	}
	if err := g.Wait(); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
		return
	}
	log.Info("bot stopped gracefully")
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
