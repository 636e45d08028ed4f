package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
)

// Refresh outcomes reported to the RefreshObserver.
const (
	OutcomeComplete = "complete" // 最終ページまたは上限まで取得し、一覧を置き換えた
	OutcomePartial  = "partial"  // 途中で打ち切られ、取得分を既存の一覧にマージした
	OutcomeKept     = "kept"     // 0件だったため、取得済みの一覧を維持した
	OutcomeFallback = "fallback" // 0件だったため、スナップショットまたはシードに切り替えた
)

// universeState は不変のスナップショットです。更新は常に新しい値の差し替えで行います。
type universeState struct {
	quotes      []entity.Quote
	index       map[string]int
	source      entity.Source
	lastRefresh time.Time
}

func newUniverseState(quotes []entity.Quote, source entity.Source, lastRefresh time.Time) *universeState {
	index := make(map[string]int, len(quotes))
	for i, q := range quotes {
		index[q.Code] = i
	}
	if len(quotes) == 0 {
		source = entity.SourceEmpty
	}
	return &universeState{quotes: quotes, index: index, source: source, lastRefresh: lastRefresh}
}

// Universe は全銘柄の直近価格を保持するプロセス全体のキャッシュです。
//
// 読み取りはブロックせず、その時点の一覧をそのまま返します。
// 更新は同時に1本だけ実行され、実行中に来た呼び出しはその結果を共有します。
type Universe struct {
	cfg       Config
	source    UniverseSource
	snapshots SnapshotStore
	seed      SeedSource
	observer  RefreshObserver

	state       atomic.Pointer[universeState]
	group       singleflight.Group
	lastTrigger atomic.Int64
	background  sync.WaitGroup
	now         func() time.Time
}

// NewUniverse は空のUniverseを生成します。起動時に Warm を呼び出してください。
// snapshots・seed・observer は nil でも構いません。
func NewUniverse(cfg Config, source UniverseSource, snapshots SnapshotStore, seed SeedSource, observer RefreshObserver) *Universe {
	if observer == nil {
		observer = noopObserver{}
	}
	u := &Universe{
		cfg:       cfg.withDefaults(),
		source:    source,
		snapshots: snapshots,
		seed:      seed,
		observer:  observer,
		now:       time.Now,
	}
	u.state.Store(newUniverseState(nil, entity.SourceEmpty, time.Time{}))
	return u
}

// Warm はスナップショット、なければシードから一覧を読み込みます。ネットワークには接続しません。
func (u *Universe) Warm(ctx context.Context) entity.Status {
	if next := u.loadFallback(ctx); next != nil {
		u.state.Store(next)
	}
	st := u.Status()
	slog.Info("quote cache warmed", "source", st.Source, "count", st.Count, "stale", st.Stale)
	return st
}

// All は現在の一覧を返します。stale の場合はバックグラウンド更新を1回だけ起動します。
func (u *Universe) All(ctx context.Context) []entity.Quote {
	s := u.state.Load()
	u.maybeTrigger(s)
	return slices.Clone(s.quotes)
}

// Page は1始まりのページ番号で一覧の一部を返します。範囲外のページは空です。
func (u *Universe) Page(ctx context.Context, page, pageSize int) (int, []entity.Quote) {
	s := u.state.Load()
	u.maybeTrigger(s)

	total := len(s.quotes)
	if page < 1 || pageSize < 1 {
		return total, []entity.Quote{}
	}
	start := (page - 1) * pageSize
	if start >= total {
		return total, []entity.Quote{}
	}
	end := min(start+pageSize, total)
	return total, slices.Clone(s.quotes[start:end])
}

// Lookup returns the cached quote for code.
func (u *Universe) Lookup(code string) (entity.Quote, bool) {
	s := u.state.Load()
	i, ok := s.index[code]
	if !ok {
		return entity.Quote{}, false
	}
	return s.quotes[i], true
}

// Status describes the cached universe.
func (u *Universe) Status() entity.Status {
	s := u.state.Load()
	return entity.Status{
		Source:      s.source,
		Stale:       u.isStale(s),
		Count:       len(s.quotes),
		LastRefresh: s.lastRefresh,
	}
}

// Wait blocks until background refreshes started by stale reads have finished.
func (u *Universe) Wait() {
	u.background.Wait()
}

// Refresh はページングで全銘柄を取得し直し、取得できた件数を返します。
// エラーは返さずログに記録します。実行中の更新があればその結果を待って共有します。
func (u *Universe) Refresh(ctx context.Context) int {
	v, _, _ := u.group.Do("refresh", func() (any, error) {
		// 呼び出し元のキャンセルで共有中の更新を止めない
		return u.refresh(context.WithoutCancel(ctx)), nil
	})
	return v.(int)
}

func (u *Universe) refresh(ctx context.Context) int {
	start := u.now()
	ctx, cancel := context.WithTimeout(ctx, u.cfg.Budget)
	defer cancel()

	collected, complete, err := u.collect(ctx)
	prev := u.state.Load()
	// 以降のファイル入出力は取得の時間制限の対象外
	ctx = context.WithoutCancel(ctx)

	if len(collected) == 0 {
		outcome := u.onEmpty(ctx, prev, err)
		u.observer.ObserveRefresh(outcome, u.now().Sub(start), len(u.state.Load().quotes))
		return 0
	}

	quotes, outcome := collected, OutcomeComplete
	if !complete {
		quotes, outcome = merge(prev.quotes, collected), OutcomePartial
		slog.Warn("quote refresh cut short, merging partial result", "fetched", len(collected), "error", err)
	}

	now := u.now()
	u.state.Store(newUniverseState(quotes, entity.SourceLive, now))
	u.persist(ctx, entity.Snapshot{LastCacheTime: now, Stocks: quotes})

	elapsed := u.now().Sub(start)
	u.observer.ObserveRefresh(outcome, elapsed, len(quotes))
	slog.Info("quote refresh finished", "outcome", outcome, "fetched", len(collected), "total", len(quotes), "elapsed", elapsed)
	return len(collected)
}

// collect は空ページ・上限・時間切れのいずれかまでページを取得します。
// complete は空ページか上限で終了した場合に true です。
func (u *Universe) collect(ctx context.Context) (quotes []entity.Quote, complete bool, err error) {
	seen := make(map[string]struct{})
	for page := 1; ; page++ {
		if len(quotes) >= u.cfg.MaxEntries {
			return quotes, true, nil
		}
		if err := ctx.Err(); err != nil {
			return quotes, false, err
		}

		items, err := u.source.FetchPage(ctx, page, u.cfg.PageSize)
		if err != nil {
			return quotes, false, err
		}
		if len(items) == 0 {
			return quotes, true, nil
		}

		for _, q := range items {
			if q.Code == "" {
				continue
			}
			if _, dup := seen[q.Code]; dup {
				continue
			}
			seen[q.Code] = struct{}{}
			quotes = append(quotes, q)
			if len(quotes) >= u.cfg.MaxEntries {
				break
			}
		}
	}
}

// onEmpty は1件も取得できなかった場合の処理です。
// このプロセスで取得済みの一覧があればそれを維持し、なければスナップショット、シードの順に切り替えます。
func (u *Universe) onEmpty(ctx context.Context, prev *universeState, err error) string {
	if prev.source == entity.SourceLive {
		slog.Warn("quote refresh returned nothing, keeping live universe", "error", err, "count", len(prev.quotes))
		return OutcomeKept
	}

	next := u.loadFallback(ctx)
	if next == nil || (len(next.quotes) == 0 && len(prev.quotes) > 0) {
		slog.Warn("quote refresh returned nothing and no fallback is available", "error", err, "source", prev.source)
		return OutcomeKept
	}
	u.state.Store(next)
	slog.Warn("quote refresh returned nothing, serving fallback", "error", err, "source", next.source, "count", len(next.quotes))
	return OutcomeFallback
}

// loadFallback は期限内のスナップショット、シード、空の順に一覧を組み立てます。
func (u *Universe) loadFallback(ctx context.Context) *universeState {
	if u.snapshots != nil {
		snap, err := u.snapshots.Load(ctx)
		switch {
		case errors.Is(err, domain.ErrSnapshotNotFound):
		case err != nil:
			slog.Warn("failed to load quote snapshot", "error", err)
		case u.now().Sub(snap.LastCacheTime) > u.cfg.SnapshotMaxAge:
			slog.Warn("quote snapshot too old, ignoring", "last_cache_time", snap.LastCacheTime, "max_age", u.cfg.SnapshotMaxAge)
		case len(snap.Stocks) > 0:
			return newUniverseState(dedupe(snap.Stocks), entity.SourceSnapshot, snap.LastCacheTime)
		}
	}

	if u.seed != nil {
		quotes, err := u.seed.Seed()
		if err != nil {
			slog.Warn("failed to load bundled quote seed", "error", err)
		} else if len(quotes) > 0 {
			return newUniverseState(dedupe(quotes), entity.SourceSeed, time.Time{})
		}
	}
	return newUniverseState(nil, entity.SourceEmpty, time.Time{})
}

func (u *Universe) persist(ctx context.Context, snap entity.Snapshot) {
	if u.snapshots == nil {
		return
	}
	if err := u.snapshots.Save(ctx, snap); err != nil {
		slog.Error("failed to persist quote snapshot", "error", err)
	}
}

func (u *Universe) isStale(s *universeState) bool {
	return s.lastRefresh.IsZero() || u.now().Sub(s.lastRefresh) > u.cfg.Freshness
}

// maybeTrigger は stale な読み取りに対して、TriggerInterval に1回までバックグラウンド更新を起動します。
func (u *Universe) maybeTrigger(s *universeState) {
	if u.source == nil || !u.isStale(s) {
		return
	}
	now := u.now().UnixNano()
	last := u.lastTrigger.Load()
	if last != 0 && time.Duration(now-last) < u.cfg.TriggerInterval {
		return
	}
	if !u.lastTrigger.CompareAndSwap(last, now) {
		return
	}

	u.background.Add(1)
	go func() {
		defer u.background.Done()
		u.Refresh(context.Background())
	}()
}

// merge は prev の順序を保ったまま fresh で上書きし、新しい銘柄を末尾に追加します。
func merge(prev, fresh []entity.Quote) []entity.Quote {
	byCode := make(map[string]entity.Quote, len(fresh))
	for _, q := range fresh {
		byCode[q.Code] = q
	}
	out := make([]entity.Quote, 0, len(prev)+len(fresh))
	for _, q := range prev {
		if f, ok := byCode[q.Code]; ok {
			out = append(out, f)
			delete(byCode, q.Code)
			continue
		}
		out = append(out, q)
	}
	for _, q := range fresh {
		if _, ok := byCode[q.Code]; ok {
			out = append(out, q)
		}
	}
	return out
}

func dedupe(quotes []entity.Quote) []entity.Quote {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]entity.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Code == "" {
			continue
		}
		if _, ok := seen[q.Code]; ok {
			continue
		}
		seen[q.Code] = struct{}{}
		out = append(out, q)
	}
	return out
}
