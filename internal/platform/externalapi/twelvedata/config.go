// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import (
	"time"

	"stock_trader/internal/shared/env"
)

// Config holds configuration for the Twelve Data API client.
type Config struct {
	TwelveDataAPIKey string        // API key for authentication
	BaseURL          string        // Base URL for the API (e.g., "https://api.twelvedata.com")
	Timeout          time.Duration // HTTP request timeout
	RequestsPerMin   int           // 無料プランの上限に合わせたリクエスト数/分
	Attempts         int           // リトライを含む最大試行回数
}

// LoadConfig loads Twelve Data configuration from environment variables.
func LoadConfig() Config {
	return Config{
		TwelveDataAPIKey: env.String("TWELVE_DATA_API_KEY", ""),
		BaseURL:          env.String("TWELVE_DATA_BASE_URL", "https://api.twelvedata.com"),
		Timeout:          10 * time.Second,
		RequestsPerMin:   env.Int("TWELVE_DATA_RPM", 8),
		Attempts:         env.Int("TWELVE_DATA_ATTEMPTS", 2),
	}
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.TwelveDataAPIKey != ""
}
