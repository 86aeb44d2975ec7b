package wallet

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnavailable means the wallet cannot be reached at all.
	ErrUnavailable = errors.New("wallet provider is unavailable")
	// ErrDenied means the wallet refused account access.
	ErrDenied = errors.New("wallet refused account access")
)

// providerError tags a cause with one of the sentinels above.
type providerError struct {
	kind error
	err  error
}

func (e *providerError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *providerError) Is(target error) bool {
	return target == e.kind
}

func (e *providerError) Unwrap() error {
	return e.err
}

func (e *providerError) Cause() error {
	return e.err
}

func unavailable(err error) error {
	return &providerError{kind: ErrUnavailable, err: err}
}

func denied(err error) error {
	return &providerError{kind: ErrDenied, err: err}
}
