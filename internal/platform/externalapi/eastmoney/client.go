package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/feature/quotes/usecase"
	"stock_trader/internal/shared/ratelimiter"
	"stock_trader/internal/shared/retry"
)

const (
	// quoteFields は 最新価格, 騰落率, コード, 名称 の順です。
	quoteFields = "f2,f3,f12,f14"
	// marketFilter は上海・深圳・北京のA株を表します。
	marketFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"
)

// Client はEastmoneyから全銘柄一覧と銘柄指定の価格を取得します。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
	policy  retry.Policy
	now     func() time.Time
}

// ClientがUniverseSourceとBatchQuoteSourceを実装していることをコンパイル時に検証します。
var (
	_ usecase.UniverseSource   = (*Client)(nil)
	_ usecase.BatchQuoteSource = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
// limiter が nil の場合は cfg.RequestsPerSec から生成します。
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Client {
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter(cfg.RequestsPerSec, time.Second)
	}
	return &Client{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		policy:  retry.Policy{Attempts: cfg.Attempts, BaseDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second},
		now:     time.Now,
	}
}

// FetchPage は全銘柄一覧の page ページ目（1始まり）を取得します。
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) ([]entity.Quote, error) {
	q := url.Values{}
	q.Set("pn", strconv.Itoa(page))
	q.Set("pz", strconv.Itoa(pageSize))
	q.Set("po", "1")
	q.Set("np", "1")
	q.Set("fltt", "2")
	q.Set("invt", "2")
	q.Set("fid", "f12")
	q.Set("fs", marketFilter)
	q.Set("fields", quoteFields)

	rows, err := c.get(ctx, "eastmoney clist", c.cfg.ListURL, q)
	if err != nil {
		return nil, err
	}
	return c.toQuotes(rows), nil
}

// Quotes は指定された銘柄の価格を1回のリクエストで取得します。
// 取得できなかった銘柄は結果に含まれません。
func (c *Client) Quotes(ctx context.Context, codes []string) ([]entity.Quote, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	secids := make([]string, 0, len(codes))
	for _, code := range codes {
		secids = append(secids, SecID(code))
	}

	q := url.Values{}
	q.Set("fltt", "2")
	q.Set("invt", "2")
	q.Set("secids", strings.Join(secids, ","))
	q.Set("fields", quoteFields)

	rows, err := c.get(ctx, "eastmoney ulist", c.cfg.QuoteURL, q)
	if err != nil {
		return nil, err
	}
	return c.toQuotes(rows), nil
}

// SecID は銘柄コードを "市場.コード" 形式に変換します。6・9・5で始まるものは上海(1)、それ以外は深圳・北京(0)です。
func SecID(code string) string {
	if code != "" && strings.ContainsRune("695", rune(code[0])) {
		return "1." + code
	}
	return "0." + code
}

func (c *Client) get(ctx context.Context, op, base string, q url.Values) ([]quoteRow, error) {
	var rows []quoteRow
	err := retry.Do(ctx, c.policy, op, func(ctx context.Context) error {
		if err := c.limiter.WaitIfNeeded(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Referer", "https://quote.eastmoney.com/")

		res, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			if err := res.Body.Close(); err != nil {
				slog.Warn("failed to close response body", "error", err)
			}
		}()

		switch {
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
			return fmt.Errorf("eastmoney http %d", res.StatusCode)
		case res.StatusCode >= 400:
			return retry.Permanent(fmt.Errorf("eastmoney http %d", res.StatusCode))
		}

		var body listResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return retry.Permanent(fmt.Errorf("decode eastmoney response: %w", err))
		}
		rows = nil
		if body.Data != nil {
			rows = body.Data.Diff
		}
		return nil
	})
	return rows, err
}

func (c *Client) toQuotes(rows []quoteRow) []entity.Quote {
	now := c.now().UTC()
	out := make([]entity.Quote, 0, len(rows))
	for _, r := range rows {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			continue
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = code
		}
		out = append(out, entity.Quote{
			Code:      code,
			Name:      name,
			Price:     float64(r.Price),
			ChangePct: float64(r.ChangePct),
			FetchedAt: now,
		})
	}
	return out
}
