package jwtmw

import (
	"time"

	"stock_trader/internal/shared/env"
)

// EnvKeyJWTSecret はJWT署名鍵を保持する環境変数名です。
const EnvKeyJWTSecret = "JWT_SECRET"

// Config はトークン発行に関する設定です。
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// LoadConfig は環境変数からJWT設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Secret:     env.String(EnvKeyJWTSecret, ""),
		AccessTTL:  env.Duration("JWT_TTL", time.Hour),
		RefreshTTL: env.Duration("REFRESH_TTL", 7*24*time.Hour),
	}
}
