package usecase

import (
	"time"

	"stock_trader/internal/shared/env"
)

// Config controls the refresh pipeline and freshness of the quote cache.
type Config struct {
	PageSize   int           // 1ページあたりの件数
	MaxEntries int           // 銘柄数の上限
	Budget     time.Duration // 1回の更新にかけられる時間
	Freshness  time.Duration // 最終更新からこの時間を過ぎると stale
	// SnapshotMaxAge は起動時・フォールバック時に採用するスナップショットの最大経過時間です。
	SnapshotMaxAge time.Duration
	// TriggerInterval は stale 読み取りによるバックグラウンド更新の最小間隔です。
	TriggerInterval time.Duration
	// SecondaryBudget は銘柄指定取得で補助ソースに問い合わせる時間の上限です。
	SecondaryBudget time.Duration
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:        100,
		MaxEntries:      5000,
		Budget:          30 * time.Second,
		Freshness:       30 * time.Minute,
		SnapshotMaxAge:  24 * time.Hour,
		TriggerInterval: time.Minute,
		SecondaryBudget: 5 * time.Second,
	}
}

// LoadConfig loads the quote cache configuration from environment variables.
func LoadConfig() Config {
	d := DefaultConfig()
	return Config{
		PageSize:        env.Int("QUOTE_PAGE_SIZE", d.PageSize),
		MaxEntries:      env.Int("QUOTE_MAX_ENTRIES", d.MaxEntries),
		Budget:          env.Duration("QUOTE_REFRESH_BUDGET", d.Budget),
		Freshness:       env.Duration("QUOTE_FRESHNESS", d.Freshness),
		SnapshotMaxAge:  env.Duration("QUOTE_SNAPSHOT_MAX_AGE", d.SnapshotMaxAge),
		TriggerInterval: d.TriggerInterval,
		SecondaryBudget: env.Duration("QUOTE_SECONDARY_BUDGET", d.SecondaryBudget),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = d.MaxEntries
	}
	if c.Budget <= 0 {
		c.Budget = d.Budget
	}
	if c.Freshness <= 0 {
		c.Freshness = d.Freshness
	}
	if c.SnapshotMaxAge <= 0 {
		c.SnapshotMaxAge = d.SnapshotMaxAge
	}
	if c.TriggerInterval <= 0 {
		c.TriggerInterval = d.TriggerInterval
	}
	if c.SecondaryBudget <= 0 {
		c.SecondaryBudget = d.SecondaryBudget
	}
	return c
}
