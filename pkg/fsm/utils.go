package fsm

import (
	"errors"

	"github.com/looplab/fsm"
)

func isNoTransitionError(err error) bool {
	if err == nil {
		return false
	}
	var noTransitionError fsm.NoTransitionError
	return errors.As(err, &noTransitionError)
}

// canceledBy reports whether a before_ callback canceled the transition with target.
func canceledBy(err error, target error) bool {
	var canceled fsm.CanceledError
	if !errors.As(err, &canceled) {
		return false
	}
	return errors.Is(canceled.Err, target)
}
