package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrPluginNotFound is returned when a plugin does not exist or is owned by another user
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrUnauthorized is returned when credentials do not match
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrInsufficientTokens is returned by the up-front workflow gate when the
	// balance is below the minimum required to start a generation
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrInsufficientBalance is returned when a debit exceeds the current balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConflict is returned when a unique field (email, username) is already taken
	ErrConflict = errors.New("already taken")

	// ErrValidation is returned when a required field is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrUpstream is returned when the generation provider fails
	ErrUpstream = errors.New("generation provider failed")

	// ErrDuplicatePayment is returned when a payment event was already processed
	ErrDuplicatePayment = errors.New("payment event already processed")
)
