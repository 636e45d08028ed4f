package entity

import "time"

// Source はキャッシュ中の銘柄一覧の出所です。
type Source string

const (
	SourceLive     Source = "live"
	SourceSnapshot Source = "snapshot"
	SourceSeed     Source = "seed"
	SourceEmpty    Source = "empty"
)

// Status describes the cached universe.
type Status struct {
	Source Source
	// Stale is true once the freshness window since LastRefresh has elapsed.
	Stale bool
	Count int
	// LastRefresh is zero when the data did not come from a fetch (seed or empty).
	LastRefresh time.Time
}
