package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stock_trader/internal/app/di"
	"stock_trader/internal/platform/db"
	infraredis "stock_trader/internal/platform/redis"
	"stock_trader/internal/platform/scheduler"
	"stock_trader/internal/shared/degrade"
	"stock_trader/internal/shared/env"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env not loaded, using process environment", "error", err)
	}
	ctx := context.Background()
	latch := degrade.NewLatch()

	// db（接続できない場合はインメモリで起動する）
	var gdb *gorm.DB
	if conn, err := db.Open(db.LoadConfigFromEnv(), di.Models()...); err != nil {
		slog.Error("database unavailable, starting in FALLBACK_MODE", "error", err)
		latch.Trip("database unreachable at startup: " + err.Error())
	} else {
		gdb = conn
		slog.Info("database connected")
	}

	// Redis
	var rdb *redisv9.Client
	if redisCfg := infraredis.LoadConfig(); redisCfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, redisCfg); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
		}
	}

	app := di.NewApp(ctx, gdb, rdb, latch)

	// クォートキャッシュ: スナップショット/シードで即座に応答できる状態にしてから1回更新する
	app.Market.Universe.Warm(ctx)
	var refreshing sync.WaitGroup
	refreshing.Add(1)
	go func() {
		defer refreshing.Done()
		n := app.Market.Universe.Refresh(ctx)
		slog.Info("initial quote refresh finished", "updated", n)
	}()

	sched := scheduler.NewScheduler(scheduler.LoadConfig(), app.Market.Quotes, app.Auth)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + env.String("PORT", "8080"),
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	sched.Stop(shutdownCtx)
	refreshing.Wait()
	app.Market.Universe.Wait()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	if gdb != nil {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	slog.Info("server stopped")
}
