// Package usecase はinsightフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	authentity "stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/insight/domain"
	"stock_trader/internal/feature/insight/domain/entity"
	quoteentity "stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/shared/retry"
)

const (
	// UnavailableMessage は生成に失敗した場合に返す代替テキストです。
	UnavailableMessage = "网络连接繁忙，AI 分析暂时不可用，请稍后再试。"

	// PortfolioSubject はポートフォリオ分析のSubjectです。
	PortfolioSubject = "portfolio"
)

// InsightUsecase は銘柄とポートフォリオのAI分析を生成します。
type InsightUsecase struct {
	generator Generator
	quotes    QuoteReader
	portfolio PortfolioReader
	profiles  ProfileReader
	cfg       Config
	md        goldmark.Markdown
	now       func() time.Time
}

// NewInsightUsecase はInsightUsecaseを生成します。generator が nil の場合は常に代替テキストを返します。
func NewInsightUsecase(generator Generator, quotes QuoteReader, portfolio PortfolioReader, profiles ProfileReader, cfg Config) *InsightUsecase {
	return &InsightUsecase{
		generator: generator,
		quotes:    quotes,
		portfolio: portfolio,
		profiles:  profiles,
		cfg:       cfg,
		md:        goldmark.New(),
		now:       time.Now,
	}
}

// Stock は銘柄の分析を生成します。
func (u *InsightUsecase) Stock(ctx context.Context, userID uint, code string) (*entity.Insight, error) {
	code = quoteentity.NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	quotes, err := u.quotes.GetQuotes(ctx, []string{code})
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	q := quoteentity.Quote{Code: code, Name: code}
	if len(quotes) > 0 {
		q = quotes[0]
	}
	return u.generate(ctx, code, stockPrompt(q, u.riskProfile(ctx, userID))), nil
}

// Portfolio はユーザーのポートフォリオ診断を生成します。
func (u *InsightUsecase) Portfolio(ctx context.Context, userID uint) (*entity.Insight, error) {
	p, err := u.portfolio.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]quoteentity.Quote, len(p.Holdings))
	if len(p.Holdings) > 0 {
		codes := make([]string, 0, len(p.Holdings))
		for _, h := range p.Holdings {
			codes = append(codes, h.Code)
		}
		quotes, err := u.quotes.GetQuotes(ctx, codes)
		if err != nil {
			// 時価が取れなくても取得原価で診断する
			slog.Warn("portfolio insight without prices", "error", err, "user_id", userID)
		}
		for _, q := range quotes {
			prices[q.Code] = q
		}
	}
	return u.generate(ctx, PortfolioSubject, portfolioPrompt(p, prices, u.riskProfile(ctx, userID))), nil
}

// riskProfile はユーザーのリスク許容度を返します。取得できない場合は既定値です。
func (u *InsightUsecase) riskProfile(ctx context.Context, userID uint) authentity.RiskProfile {
	if u.profiles == nil {
		return authentity.DefaultRiskProfile
	}
	user, err := u.profiles.Me(ctx, userID)
	if err != nil {
		slog.Warn("risk profile unavailable, using default", "error", err, "user_id", userID)
		return authentity.DefaultRiskProfile
	}
	if p, ok := authentity.ParseRiskProfile(string(user.RiskProfile)); ok {
		return p
	}
	return authentity.DefaultRiskProfile
}

// generate はリトライ付きで生成し、失敗時は代替テキストを返します。
func (u *InsightUsecase) generate(ctx context.Context, subject, prompt string) *entity.Insight {
	out := &entity.Insight{Subject: subject, GeneratedAt: u.now()}

	var text string
	err := errors.New("generator disabled")
	if u.generator != nil {
		err = retry.Do(ctx, u.cfg.Retry, "generate insight", func(ctx context.Context) error {
			t, err := u.generator.Generate(ctx, prompt)
			if err != nil {
				return err
			}
			if strings.TrimSpace(t) == "" {
				return domain.ErrEmptyResponse
			}
			text = t
			return nil
		})
	}
	if err != nil {
		slog.Warn("insight unavailable", "error", err, "subject", subject)
		out.Markdown = UnavailableMessage
		out.HTML = u.render(UnavailableMessage)
		return out
	}

	out.Available = true
	out.Markdown = text
	out.HTML = u.render(text)
	return out
}

func (u *InsightUsecase) render(markdown string) string {
	var buf bytes.Buffer
	if err := u.md.Convert([]byte(markdown), &buf); err != nil {
		slog.Warn("markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}
