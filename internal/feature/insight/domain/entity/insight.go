// Package entity はinsightフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// Insight はAIが生成した分析テキストです。
type Insight struct {
	// Subject は分析対象（銘柄コードまたは "portfolio"）です。
	Subject  string
	Markdown string
	HTML     string
	// Available が false の場合、生成に失敗し Markdown には代替メッセージが入っています。
	Available   bool
	GeneratedAt time.Time
}
