package apperrors

import "errors"

// Standard application errors
var (
	// ErrProviderMissing is returned when no wallet provider is available in
	// the execution environment.
	ErrProviderMissing = errors.New("wallet provider is not available")

	// ErrProbeFailed is returned when a network probe against a present
	// provider fails.
	ErrProbeFailed = errors.New("network probe failed")

	// ErrSwitchRejected is returned when the provider refuses a chain switch
	// for any reason other than an unrecognized chain.
	ErrSwitchRejected = errors.New("chain switch rejected")

	// ErrChainUnrecognized is returned when the provider does not know the
	// requested chain; the caller follows up with an add-chain request.
	ErrChainUnrecognized = errors.New("chain not recognized by provider")

	// ErrAddChainFailed is returned when the add-chain follow-up request fails.
	ErrAddChainFailed = errors.New("failed to add chain to provider")

	// ErrNoSecretConfigured is returned when a token is requested for an
	// identifier without a pre-issued token and no signing secret is set.
	ErrNoSecretConfigured = errors.New("no signing secret configured and no pre-issued token available")

	// ErrSigningFailed is returned when the token signing routine itself fails.
	ErrSigningFailed = errors.New("token signing failed")

	// ErrChannelAcquisitionFailed is returned when both the shared channel and
	// the private fallback channel could not be acquired.
	ErrChannelAcquisitionFailed = errors.New("channel acquisition failed")

	// ErrBackendFailure is returned when an interaction with the chat backend
	// fails without a structured backend error.
	ErrBackendFailure = errors.New("chat backend interaction failed")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timed out")
)
