// Package common defines shared constants and sentinel errors used across
// the Occasio client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation errors are raised client-side and never reach the network.
	ErrValidation = errors.New("validation error")

	// Auth errors: invalid credentials, an expired or invalid OTP, or a
	// token that stayed unauthorized after the refresh retry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOTPExpired is raised when the client-side OTP expiry estimate has
	// passed; the server is not consulted in that case.
	ErrOTPExpired = errors.New("otp expired")

	// ErrNetworkUnavailable is returned when the connectivity monitor
	// reports the device offline before a request is attempted.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
)
