// Package eastmoney provides a client for the Eastmoney push2 quote API.
package eastmoney

import (
	"time"

	"stock_trader/internal/shared/env"
)

const (
	defaultListURL  = "https://82.push2.eastmoney.com/api/qt/clist/get"
	defaultQuoteURL = "https://push2.eastmoney.com/api/qt/ulist.np/get"
)

// Config holds configuration for the Eastmoney client.
type Config struct {
	ListURL        string        // 全銘柄一覧（clist）のURL
	QuoteURL       string        // 銘柄指定の一括取得（ulist）のURL
	Timeout        time.Duration // HTTP request timeout
	RequestsPerSec int           // 1秒あたりのリクエスト上限
	Attempts       int           // リトライを含む最大試行回数
}

// LoadConfig loads Eastmoney configuration from environment variables.
func LoadConfig() Config {
	return Config{
		ListURL:        env.String("EASTMONEY_BASE_URL", defaultListURL),
		QuoteURL:       env.String("EASTMONEY_QUOTE_URL", defaultQuoteURL),
		Timeout:        env.Duration("EASTMONEY_TIMEOUT", 10*time.Second),
		RequestsPerSec: env.Int("EASTMONEY_RPS", 5),
		Attempts:       env.Int("EASTMONEY_ATTEMPTS", 3),
	}
}
