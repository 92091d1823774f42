package cli

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// errNothingPlaced reports an insert or append that placed no items.
var errNothingPlaced = errors.New("nothing placed")

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitUserError, err: err}
}

func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// userSentinels are store and parsing errors caused by input rather than
// by the environment.
var userSentinels = []error{
	types.ErrFabricNotFound,
	types.ErrFabricExists,
	types.ErrInvalidName,
	types.ErrInvalidSize,
	types.ErrArchetypeNotFound,
	types.ErrInvalidArchetype,
	types.ErrInvalidQuery,
	types.ErrInvalidQuantity,
	types.ErrInvalidSnapshot,
}

// storeError classifies an error returned by the store.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range userSentinels {
		if errors.Is(err, s) {
			return userError(err)
		}
	}
	return sysError(err)
}

// exitCode maps an error returned by a command to a process exit code.
// Errors without a code are flag and argument errors from cobra.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
