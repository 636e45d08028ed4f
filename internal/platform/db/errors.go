package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUnavailable はerrがストレージ到達不能（接続断・タイムアウト等）を表すかを判定します。
// SQLの構文エラーや制約違反など、接続が生きている場合のエラーは false です。
// 呼び出し側のコンテキストが切れた（期限切れ・キャンセル）場合も false です。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	// pgx や net.OpError がラップしたものも含め、ctx 起因のエラーは障害扱いしない
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, gorm.ErrInvalidDB) {
		return true
	}
	// database/sql はクローズ済みDBに対して非公開のエラーを返す
	if strings.Contains(err.Error(), "sql: database is closed") {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception, 57P0x: サーバ停止
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}

	if pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsUniqueViolation はerrがユニーク制約違反かを判定します。
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
