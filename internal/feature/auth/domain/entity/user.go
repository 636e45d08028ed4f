// Package entity defines the domain entities for the auth feature.
package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RiskProfile はユーザーの投資リスク許容度です。AIインサイトのプロンプトで使われます。
type RiskProfile string

const (
	RiskLow    RiskProfile = "low"
	RiskMedium RiskProfile = "medium"
	RiskHigh   RiskProfile = "high"
)

// DefaultRiskProfile は登録時に指定がない場合の値です。
const DefaultRiskProfile = RiskMedium

// ParseRiskProfile は文字列をRiskProfileに変換します。空文字はDefaultRiskProfileになります。
func ParseRiskProfile(s string) (RiskProfile, bool) {
	switch p := RiskProfile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultRiskProfile, true
	case RiskLow, RiskMedium, RiskHigh:
		return p, true
	default:
		return "", false
	}
}

// Label は画面表示用の名称を返します。
func (p RiskProfile) Label() string {
	switch p {
	case RiskLow:
		return "保守型"
	case RiskHigh:
		return "激进型"
	default:
		return "稳健型"
	}
}

// User represents a registered user in the system.
type User struct {
	ID       uint
	Username string
	// Email must be unique across all users.
	Email        string
	PasswordHash string
	RiskProfile  RiskProfile
	// Balance は登録時点または最後に読み込んだ時点の現金残高です。
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
