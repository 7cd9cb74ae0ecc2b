package xero

import (
	"errors"
	"fmt"
)

type AuthErrorKind string

const (
	MissingCredentials  AuthErrorKind = "missing_credentials"
	MissingClientConfig AuthErrorKind = "missing_client_config"
	RefreshFailed       AuthErrorKind = "refresh_failed"
	Unauthorized        AuthErrorKind = "unauthorized"
)

// AuthError means the run cannot authenticate. Callers should send the user
// through authorization again instead of retrying.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

var (
	ErrMissingCredentials  = &AuthError{Kind: MissingCredentials}
	ErrMissingClientConfig = &AuthError{Kind: MissingClientConfig}
	ErrRefreshFailed       = &AuthError{Kind: RefreshFailed}
	ErrUnauthorized        = &AuthError{Kind: Unauthorized}
)

func (e *AuthError) Error() string {
	var msg string
	switch e.Kind {
	case MissingCredentials:
		msg = "xero credentials missing: access token, refresh token and tenant id are required"
	case MissingClientConfig:
		msg = "xero client id and secret are not configured"
	case RefreshFailed:
		msg = "xero token refresh failed"
	case Unauthorized:
		msg = "xero rejected the access token"
	default:
		msg = "xero authentication error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so errors.Is(err, ErrUnauthorized) works on wrapped values.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// ConnectionError covers transport failures, unexpected statuses and malformed responses.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("xero %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ErrMalformedResponse is wrapped in a ConnectionError when a body does not match the expected schema.
var ErrMalformedResponse = errors.New("malformed response")

// IsAuthError reports whether err carries an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
