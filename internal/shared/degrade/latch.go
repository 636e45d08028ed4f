// Package degrade はプロセス全体で共有する縮退モードのラッチを提供します。
package degrade

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Latch は healthy → degraded の一方向にのみ遷移する状態セルです。
// 一度 Trip されるとプロセス終了まで元に戻りません。
type Latch struct {
	tripped   atomic.Bool
	reason    atomic.Value // string
	trippedAt atomic.Int64
}

// NewLatch は healthy 状態のラッチを生成します。
func NewLatch() *Latch {
	return &Latch{}
}

// Trip はラッチを degraded に遷移させます。
// この呼び出しで初めて遷移した場合のみ true を返します。
func (l *Latch) Trip(reason string) bool {
	if !l.tripped.CompareAndSwap(false, true) {
		return false
	}
	l.reason.Store(reason)
	l.trippedAt.Store(time.Now().UnixNano())
	slog.Error("storage degraded, switching to in-memory fallback", "reason", reason)
	return true
}

// Tripped は degraded 状態かどうかを返します。
func (l *Latch) Tripped() bool {
	return l.tripped.Load()
}

// Reason は遷移時に記録された理由を返します。healthy の場合は空文字です。
func (l *Latch) Reason() string {
	if v, ok := l.reason.Load().(string); ok {
		return v
	}
	return ""
}

// TrippedAt は遷移時刻を返します。healthy の場合はゼロ値です。
func (l *Latch) TrippedAt() time.Time {
	n := l.trippedAt.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
