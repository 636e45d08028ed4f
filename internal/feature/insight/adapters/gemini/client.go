// Package gemini はGoogle Gemini APIを使用した分析テキスト生成クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"stock_trader/internal/feature/insight/usecase"
)

// ErrDisabled は認証情報が設定されていない場合のエラーです。
var ErrDisabled = errors.New("gemini: no credentials configured")

// contentGenerator はgenai.Modelsのうち利用するメソッドだけを切り出したものです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator はGoogle Gemini APIを使用してテキストを生成します。
type GeminiGenerator struct {
	models contentGenerator
	model  string
}

// GeminiGeneratorがGeneratorを実装していることをコンパイル時に検証します。
var _ usecase.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator はGeminiGeneratorの新しいインスタンスを生成します。
// APIKey が空で UseVertexAI が true の場合は ADC と環境変数
// GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION を使います。
func NewGeminiGenerator(ctx context.Context, cfg Config) (*GeminiGenerator, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	var cc *genai.ClientConfig
	if cfg.APIKey != "" {
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{models: client.Models, model: model}, nil
}

// Generate はプロンプトからMarkdownテキストを生成します。
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	return resp.Text(), nil
}
