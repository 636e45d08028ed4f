// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned during signup when the email is already registered.
	ErrUserAlreadyExists = errors.New("user with this email already exists")

	// ErrUserNotFound indicates that no user was found with the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when email or password is wrong.
	// 利用者列挙を防ぐため、どちらが誤っているかは区別しません。
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword はパスワードが最低文字数に満たない場合のエラーです。
	ErrWeakPassword = errors.New("password must be at least 8 characters long")

	// ErrInvalidRiskProfile はlow/medium/high以外のリスク許容度が指定された場合のエラーです。
	ErrInvalidRiskProfile = errors.New("riskProfile must be one of low, medium, high")
)
