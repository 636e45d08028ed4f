package usecase

import (
	"time"

	"stock_trader/internal/shared/env"
	"stock_trader/internal/shared/retry"
)

// Config はAI生成のリトライ設定です。
// 既定では5回まで試行し、待ち時間は1秒から倍々で最大16秒です。
type Config struct {
	Retry retry.Policy
}

// DefaultConfig returns the default insight configuration.
func DefaultConfig() Config {
	return Config{Retry: retry.Policy{Attempts: 5, BaseDelay: time.Second, MaxDelay: 16 * time.Second}}
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	def := DefaultConfig()
	return Config{Retry: retry.Policy{
		Attempts:  env.Int("INSIGHT_RETRY_ATTEMPTS", def.Retry.Attempts),
		BaseDelay: env.Duration("INSIGHT_RETRY_BASE_DELAY", def.Retry.BaseDelay),
		MaxDelay:  env.Duration("INSIGHT_RETRY_MAX_DELAY", def.Retry.MaxDelay),
	}}
}
