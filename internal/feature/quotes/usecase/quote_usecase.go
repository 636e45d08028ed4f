package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
)

const (
	// MaxCodesPerRequest は1回の問い合わせで受け付ける銘柄数の上限です。
	MaxCodesPerRequest = 50
	// secondaryConcurrency は補助ソースへの同時リクエスト数の上限です。
	secondaryConcurrency = 10
)

// QuoteUsecase は銘柄コード指定の価格取得と、キャッシュ済み一覧の参照を提供します。
type QuoteUsecase struct {
	universe  *Universe
	primary   BatchQuoteSource
	secondary SingleQuoteSource
	budget    time.Duration
}

// NewQuoteUsecase はQuoteUsecaseを生成します。primary・secondary は nil でも構いません。
// 補助ソースの時間上限は universe の Config.SecondaryBudget に従います。
func NewQuoteUsecase(universe *Universe, primary BatchQuoteSource, secondary SingleQuoteSource) *QuoteUsecase {
	budget := DefaultConfig().SecondaryBudget
	if universe != nil {
		budget = universe.cfg.SecondaryBudget
	}
	return &QuoteUsecase{universe: universe, primary: primary, secondary: secondary, budget: budget}
}

// GetQuotes は指定された銘柄の価格をリクエスト順に返します。
//
// まず一括ソースに問い合わせ、取得できなかった銘柄だけを補助ソースに1件ずつ問い合わせます。
// どちらからも取得できなかった銘柄は価格0・騰落率0で返し、結果から省きません。
func (u *QuoteUsecase) GetQuotes(ctx context.Context, codes []string) ([]entity.Quote, error) {
	codes = normalizeCodes(codes)
	if len(codes) > MaxCodesPerRequest {
		return nil, domain.ErrTooManyCodes
	}
	if len(codes) == 0 {
		return []entity.Quote{}, nil
	}

	found := make(map[string]entity.Quote, len(codes))
	if u.primary != nil {
		qs, err := u.primary.Quotes(ctx, codes)
		if err != nil {
			slog.Warn("primary quote source failed", "error", err, "codes", len(codes))
		}
		for _, q := range qs {
			found[entity.NormalizeCode(q.Code)] = q
		}
	}

	missing := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := found[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 && u.secondary != nil {
		u.fetchSecondary(ctx, missing, found)
	}

	out := make([]entity.Quote, 0, len(codes))
	for _, c := range codes {
		q := found[c]
		q.Code = c
		if q.Name == "" {
			q.Name = u.nameOf(c)
		}
		out = append(out, q)
	}
	return out, nil
}

// fetchSecondary は補助ソースに並行して問い合わせます。個々の失敗は無視します。
// 全体で u.budget を超えた分は打ち切り、その銘柄は価格0のまま返ります。
func (u *QuoteUsecase) fetchSecondary(ctx context.Context, codes []string, found map[string]entity.Quote) {
	ctx, cancel := context.WithTimeout(ctx, u.budget)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(secondaryConcurrency)
	for _, code := range codes {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			q, err := u.secondary.Quote(gctx, code)
			if err != nil {
				slog.Warn("secondary quote source failed", "code", code, "error", err)
				return nil
			}
			if q == nil {
				return nil
			}
			mu.Lock()
			found[code] = *q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (u *QuoteUsecase) nameOf(code string) string {
	if u.universe != nil {
		if q, ok := u.universe.Lookup(code); ok && q.Name != "" {
			return q.Name
		}
	}
	return code
}

// List returns one page of the cached universe and its total size.
func (u *QuoteUsecase) List(ctx context.Context, page, pageSize int) (int, []entity.Quote) {
	return u.universe.Page(ctx, page, pageSize)
}

// Status describes the cached universe.
func (u *QuoteUsecase) Status() entity.Status {
	return u.universe.Status()
}

// Refresh runs, or joins, a refresh of the cached universe.
func (u *QuoteUsecase) Refresh(ctx context.Context) int {
	return u.universe.Refresh(ctx)
}

// normalizeCodes は表記を揃え、空要素と重複を取り除きます。順序は保ちます。
func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = entity.NormalizeCode(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
