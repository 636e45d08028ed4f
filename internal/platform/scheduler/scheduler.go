// Package scheduler は robfig/cron による定期ジョブの実行を提供します。
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"stock_trader/internal/shared/env"
)

// 既定のスケジュール（秒フィールド付き）。
const (
	DefaultQuoteRefreshSpec   = "0 */5 * * * *"
	DefaultSessionCleanupSpec = "0 0 * * * *"
)

// Config はジョブのスケジュールです。空文字のジョブは登録しません。
type Config struct {
	QuoteRefreshSpec   string
	SessionCleanupSpec string
	JobTimeout         time.Duration
}

// LoadConfig は環境変数からスケジュールを読み込みます。
func LoadConfig() Config {
	return Config{
		QuoteRefreshSpec:   env.String("QUOTE_REFRESH_CRON", DefaultQuoteRefreshSpec),
		SessionCleanupSpec: env.String("SESSION_CLEANUP_CRON", DefaultSessionCleanupSpec),
		JobTimeout:         env.Duration("CRON_JOB_TIMEOUT", 2*time.Minute),
	}
}

// QuoteRefresher は価格キャッシュの更新を行います。更新件数を返します。
type QuoteRefresher interface {
	Refresh(ctx context.Context) int
}

// SessionCleaner は期限切れセッションを削除します。
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int64, error)
}

// Scheduler は定期ジョブを管理します。
type Scheduler struct {
	cron    *cron.Cron
	cfg     Config
	quotes  QuoteRefresher
	cleaner SessionCleaner
}

// NewScheduler は Scheduler を生成します。quotes / cleaner が nil のジョブは登録されません。
// 前回の実行が終わっていないジョブはスキップされます。
func NewScheduler(cfg Config, quotes QuoteRefresher, cleaner SessionCleaner) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{cron: c, cfg: cfg, quotes: quotes, cleaner: cleaner}
}

// Start はジョブを登録してスケジューラを開始します。
func (s *Scheduler) Start() error {
	if s.quotes != nil && s.cfg.QuoteRefreshSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.QuoteRefreshSpec, s.refreshQuotes); err != nil {
			return fmt.Errorf("schedule quote refresh %q: %w", s.cfg.QuoteRefreshSpec, err)
		}
	}
	if s.cleaner != nil && s.cfg.SessionCleanupSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionCleanupSpec, s.cleanupSessions); err != nil {
			return fmt.Errorf("schedule session cleanup %q: %w", s.cfg.SessionCleanupSpec, err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()),
		"quote_refresh", s.cfg.QuoteRefreshSpec, "session_cleanup", s.cfg.SessionCleanupSpec)
	return nil
}

// Stop は新規実行を止め、実行中のジョブの完了か ctx の終了まで待ちます。
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out", "error", ctx.Err())
	}
}

func (s *Scheduler) refreshQuotes() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	updated := s.quotes.Refresh(ctx)
	slog.Info("scheduled quote refresh finished", "updated", updated)
}

func (s *Scheduler) cleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	n, err := s.cleaner.CleanupSessions(ctx)
	if err != nil {
		slog.Warn("scheduled session cleanup failed", "error", err)
		return
	}
	slog.Info("scheduled session cleanup finished", "deleted", n)
}
