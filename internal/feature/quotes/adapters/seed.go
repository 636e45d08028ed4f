package adapters

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/feature/quotes/usecase"
)

//go:embed seed/quotes.json
var seedJSON []byte

// EmbeddedSeed はバイナリに同梱した主要銘柄の一覧です。
// 外部ソースにもスナップショットにも頼れない初回起動時に使います。
type EmbeddedSeed struct {
	data []byte
}

// EmbeddedSeedがSeedSourceを実装していることをコンパイル時に検証します。
var _ usecase.SeedSource = (*EmbeddedSeed)(nil)

// NewEmbeddedSeed returns the seed bundled with the binary.
func NewEmbeddedSeed() *EmbeddedSeed {
	return &EmbeddedSeed{data: seedJSON}
}

// Seed decodes the bundled list.
func (s *EmbeddedSeed) Seed() ([]entity.Quote, error) {
	var snap entity.Snapshot
	if err := json.Unmarshal(s.data, &snap); err != nil {
		return nil, fmt.Errorf("decode quote seed: %w", err)
	}
	return snap.Stocks, nil
}
