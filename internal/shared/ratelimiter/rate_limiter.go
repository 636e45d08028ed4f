// Package ratelimiter はAPI呼び出しなどの操作頻度を制限する仕組みを提供します。
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、外部API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回までに操作を制限します。
// トークンバケットで実装されており、バーストは limit 回まで許可します。
type RateLimiter struct {
	limiter *rate.Limiter
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit <= 0 の場合は制限なしになります。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	every := interval / time.Duration(limit)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(every), limit)}
}

// WaitIfNeeded はトークンが得られるまで待機します。
// ctx がキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}
