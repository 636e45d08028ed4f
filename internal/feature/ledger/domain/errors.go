// Package domain defines domain-level errors for the ledger feature.
package domain

import "errors"

// Validation errors. Their messages are safe to show to clients.
var (
	// ErrInvalidType indicates a trade type other than "buy" or "sell".
	ErrInvalidType = errors.New("invalid trade type: must be buy or sell")

	// ErrInvalidQuantityOrPrice indicates non-integer/non-positive shares or a non-finite/non-positive price.
	ErrInvalidQuantityOrPrice = errors.New("shares must be a positive integer and price a positive number")

	// ErrInvalidCode indicates an empty security code.
	ErrInvalidCode = errors.New("security code is required")
)

// Business rule violations. No mutation happened when these are returned.
var (
	// ErrInsufficientBalance indicates the buy total exceeds the cash balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientHolding indicates a sell for more shares than held.
	ErrInsufficientHolding = errors.New("insufficient holding")
)

var (
	// ErrUserNotFound indicates the ledger has no account for the user.
	ErrUserNotFound = errors.New("user not found")

	// ErrStorageUnavailable indicates the ledger storage could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsValidation reports whether err is caused by bad user input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidType) || errors.Is(err, ErrInvalidQuantityOrPrice) || errors.Is(err, ErrInvalidCode)
}

// IsBusinessRule reports whether err is a rejected-but-valid trade.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrInsufficientHolding)
}

// IsDomain reports whether err is one of the ledger's own errors.
func IsDomain(err error) bool {
	return IsValidation(err) || IsBusinessRule(err) ||
		errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrStorageUnavailable)
}
