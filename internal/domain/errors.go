package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates caller input validation errors.
	ErrInvalidRequest = errors.New("auth: invalid request")
	// ErrCredentialNotFound signals a lookup for a key with no stored credential.
	ErrCredentialNotFound = errors.New("auth: credential not found")
)

// FailReason classifies why an outbound provider call failed.
type FailReason string

const (
	// ReasonProviderRejected means the provider answered with a non-success status.
	ReasonProviderRejected FailReason = "provider_rejected"
	// ReasonMalformedResponse means the provider body could not be decoded.
	ReasonMalformedResponse FailReason = "malformed_response"
)

// ExchangeError reports a failed authorization-code exchange.
type ExchangeError struct {
	Reason FailReason
	Detail string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange failed (%s): %s", e.Reason, e.Detail)
}

// RefreshError reports a failed refresh-token exchange.
type RefreshError struct {
	Reason FailReason
	Detail string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh failed (%s): %s", e.Reason, e.Detail)
}

// IdentityError reports a failure to resolve the authenticated subject. The
// enclosing flow must stop: provisioning an unknown subject is never safe.
type IdentityError struct {
	Detail string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity resolution failed: %s", e.Detail)
}

// ConfigurationError marks a missing deployment secret or endpoint. It is a
// precondition failure, never to be conflated with a provider rejection.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration missing: %s", e.Field)
}
