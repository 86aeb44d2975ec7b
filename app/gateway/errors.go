package gateway

import (
	"fmt"

	"github.com/pkg/errors"

	"vaultgate/app/models"
	"vaultgate/app/wallet"
)

// Error is the failure of one gateway action.
type Error struct {
	Action models.Action
	Kind   models.ErrorKind
	Stage  models.Stage // the stage the action failed in
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed while %s (%s): %v", e.Action, e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf maps any error returned by the gateway to its kind.
func KindOf(err error) models.ErrorKind {
	if err == nil {
		return models.KindNone
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	switch {
	case errors.Is(err, wallet.ErrUnavailable):
		return models.KindProviderUnavailable
	case errors.Is(err, wallet.ErrDenied):
		return models.KindAuthorizationDenied
	}
	return models.KindNone
}

// StageOf returns the stage a gateway action failed in.
func StageOf(err error) models.Stage {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Stage
	}
	if err == nil {
		return models.StageSucceeded
	}
	return models.StageFailed
}

// classify picks the kind for a failure in the given stage. Only the access
// request can tell that there is no wallet: an unreachable wallet there is
// ProviderUnavailable, anything else is a denial. Once access is granted every
// failure gets the action's own kind.
func classify(stage models.Stage, err error, fallback models.ErrorKind) models.ErrorKind {
	if stage != models.StageAuthorizing {
		return fallback
	}
	if errors.Is(err, wallet.ErrUnavailable) {
		return models.KindProviderUnavailable
	}
	return models.KindAuthorizationDenied
}
