// Package db はPostgreSQLへの接続・リトライ・マイグレーションを提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"stock_trader/internal/shared/env"
)

const (
	// retryInterval は接続リトライの間隔です。
	retryInterval = 3 * time.Second
	// DefaultConnectTimeout は起動時に接続を待つ最大時間です。
	DefaultConnectTimeout = 60 * time.Second
)

// Config はデータベース接続設定を保持します。
type Config struct {
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	SSLMode      string
	InstanceName string // Cloud SQL インスタンス接続名（設定時は Unix ソケット接続）

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	RunMigrations   bool
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	return Config{
		User:            env.String("DB_USER", ""),
		Password:        env.String("DB_PASSWORD", ""),
		Name:            env.String("DB_NAME", ""),
		Host:            env.String("DB_HOST", "localhost"),
		Port:            env.String("DB_PORT", "5432"),
		SSLMode:         env.String("DB_SSLMODE", "disable"),
		InstanceName:    env.String("INSTANCE_CONNECTION_NAME", ""),
		MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnectTimeout:  env.Duration("DB_CONNECT_TIMEOUT", DefaultConnectTimeout),
		RunMigrations:   env.Bool("RUN_MIGRATIONS", false),
	}
}

// BuildDSN はPostgreSQL用のDSN文字列を生成します。
// InstanceName が設定されている場合は Cloud SQL の Unix ソケットを優先します。
func BuildDSN(cfg Config) string {
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host = "/cloudsql/" + cfg.InstanceName
		port = ""
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s", host, cfg.User, cfg.Password, cfg.Name)
	if port != "" {
		dsn += " port=" + port
	}
	return dsn + " sslmode=" + sslmode + " TimeZone=UTC"
}

// OpenPostgres はgorm.DBをPostgreSQLドライバで開きます。
// TranslateError によりユニーク制約違反は gorm.ErrDuplicatedKey に変換されます。
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// ConnectWithRetry は timeout が経過するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		slog.Warn("DB connect failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(min(retryInterval, remaining))
	}
}

// Open は接続・プール設定・（必要なら）マイグレーションまでを行います。
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, OpenPostgres)
	if err != nil {
		return nil, err
	}
	if err := ConfigurePool(db, cfg); err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := Migrate(db, models...); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// ConfigurePool はコネクションプールの上限を設定します。
// 上限を超えた呼び出しはプールの空きを待ちます。
func ConfigurePool(db *gorm.DB, cfg Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

// Migrate は指定されたモデルのテーブルを作成・更新します。
func Migrate(db *gorm.DB, models ...any) error {
	if len(models) == 0 {
		return errors.New("migrate: no models given")
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
