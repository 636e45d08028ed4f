package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/feature/quotes/usecase"
	"stock_trader/internal/platform/externalapi/twelvedata/dto"
	"stock_trader/internal/shared/ratelimiter"
	"stock_trader/internal/shared/retry"
)

// TwelveDataQuotes はTwelve Data外部APIから1銘柄ずつ価格を取得するSingleQuoteSource実装です。
type TwelveDataQuotes struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
	policy  retry.Policy
	now     func() time.Time
}

// TwelveDataQuotesがSingleQuoteSourceを実装していることをコンパイル時に検証します。
var _ usecase.SingleQuoteSource = (*TwelveDataQuotes)(nil)

// NewTwelveDataQuotes は指定された設定とHTTPクライアントでTwelveDataQuotesの新しいインスタンスを生成します。
func NewTwelveDataQuotes(cfg Config, client *http.Client) *TwelveDataQuotes {
	return &TwelveDataQuotes{
		cfg:     cfg,
		client:  client,
		limiter: ratelimiter.NewRateLimiter(cfg.RequestsPerMin, time.Minute),
		policy:  retry.Policy{Attempts: cfg.Attempts, BaseDelay: 500 * time.Millisecond, MaxDelay: 2 * time.Second},
		now:     time.Now,
	}
}

// Exchange は銘柄コードから取引所を判定します。6で始まるものは上海、それ以外は深圳です。
func Exchange(code string) string {
	if len(code) > 0 && code[0] == '6' {
		return "SSE"
	}
	return "SZSE"
}

// Quote はTwelve Data APIから1銘柄の最新価格を取得します。
// レート制限のトークン待ちも ctx に従い、期限内に得られない場合はエラーを返します。
func (t *TwelveDataQuotes) Quote(ctx context.Context, code string) (*entity.Quote, error) {
	var quote *entity.Quote
	err := retry.Do(ctx, t.policy, "twelvedata quote "+code, func(ctx context.Context) error {
		if err := t.limiter.WaitIfNeeded(ctx); err != nil {
			return retry.Permanent(err)
		}
		q, err := t.fetch(ctx, code)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (t *TwelveDataQuotes) fetch(ctx context.Context, code string) (*entity.Quote, error) {
	q := url.Values{}
	// クエリパラメータを追加
	q.Set("symbol", code)
	q.Set("exchange", Exchange(code))
	q.Set("apikey", t.cfg.TwelveDataAPIKey)

	// URLを生成
	u := fmt.Sprintf("%s/quote?%s", t.cfg.BaseURL, q.Encode())

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	// リクエストを実行
	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	// 5xx のみ再試行する
	if res.StatusCode >= 500 {
		return nil, fmt.Errorf("twelvedata http %d", res.StatusCode)
	}
	if res.StatusCode >= 400 {
		return nil, retry.Permanent(fmt.Errorf("twelvedata http %d", res.StatusCode))
	}

	// JSONレスポンスをDTOにデコード
	var body dto.QuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, retry.Permanent(err)
	}
	if body.Status == "error" {
		if body.Code == http.StatusNotFound {
			return nil, retry.Permanent(fmt.Errorf("twelvedata %s: %w", code, domain.ErrQuoteNotFound))
		}
		return nil, retry.Permanent(fmt.Errorf("twelvedata: %s", body.Message))
	}

	// 終値をパース
	price, err := strconv.ParseFloat(body.Close, 64)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("parse close %q: %w", body.Close, err))
	}
	// 騰落率をパース（欠損時は0）
	var pct float64
	if body.PercentChange != "" {
		pct, err = strconv.ParseFloat(body.PercentChange, 64)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("parse percent_change %q: %w", body.PercentChange, err))
		}
	}

	// ドメインエンティティに変換
	return &entity.Quote{
		Code:      code,
		Name:      body.Name,
		Price:     price,
		ChangePct: pct,
		FetchedAt: t.now().UTC(),
	}, nil
}
