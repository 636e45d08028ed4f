// Package domain はinsightフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrInvalidCode は銘柄コードが空の場合のエラーです。
	ErrInvalidCode = errors.New("stock code is required")

	// ErrEmptyResponse は生成結果が空だった場合のエラーです。
	ErrEmptyResponse = errors.New("generator returned an empty response")
)
