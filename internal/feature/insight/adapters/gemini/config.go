package gemini

import "stock_trader/internal/shared/env"

// DefaultModel はGemini APIのデフォルトモデルです。
const DefaultModel = "gemini-2.5-flash"

// Config はGeminiクライアントの設定です。
type Config struct {
	APIKey string
	Model  string
	// UseVertexAI が true の場合、APIキーではなくADC（GOOGLE_CLOUD_PROJECT等）で認証します。
	UseVertexAI bool
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	return Config{
		APIKey:      env.String("GEMINI_API_KEY", ""),
		Model:       env.String("GEMINI_MODEL", DefaultModel),
		UseVertexAI: env.Bool("GOOGLE_GENAI_USE_VERTEXAI", false),
	}
}

// Enabled は認証情報が設定されているかを返します。
func (c Config) Enabled() bool {
	return c.APIKey != "" || c.UseVertexAI
}
