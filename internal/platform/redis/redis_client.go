// Package redis はRedisクライアントの生成を提供します。
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_trader/internal/shared/env"
)

// Config はRedis接続設定です。
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LoadConfig は環境変数からRedis設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Host:     env.String("REDIS_HOST", ""),
		Port:     env.String("REDIS_PORT", "6379"),
		Password: env.String("REDIS_PASSWORD", ""),
		DB:       env.Int("REDIS_DB", 0),
	}
}

// Enabled はRedisホストが設定されているかを返します。
func (c Config) Enabled() bool {
	return c.Host != ""
}

// NewRedisClient は接続確認済みのRedisクライアントを返します。
// 呼び出し側はエラー時にキャッシュなしで動作を継続します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("redis is not configured")
	}
	addr := cfg.Host + ":" + cfg.Port

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
