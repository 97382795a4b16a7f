package democrat

import (
	"errors"
	"fmt"

	derrors "github.com/vango-dev/democrat/internal/errors"
)

// ErrHookOrder is raised when a component calls a different sequence of hooks
// than on its previous render.
var ErrHookOrder = errors.New("democrat: hook order changed")

// ErrOutsideRender is raised when a hook is called through a *Hooks handle
// whose component is not currently rendering.
var ErrOutsideRender = errors.New("democrat: hook called outside of render")

// ErrUnmounted is raised when a setter or dispatcher of a removed component
// is invoked.
var ErrUnmounted = errors.New("democrat: cannot set state of an unmounted component")

// ErrSetDuringRender is raised when state is mutated synchronously from
// inside a component render.
var ErrSetDuringRender = errors.New("democrat: cannot set state during render")

// ErrDestroyed is raised when a destroyed store is mutated.
var ErrDestroyed = errors.New("democrat: store destroyed")

// ErrAlreadyDestroyed is raised by a second Destroy.
var ErrAlreadyDestroyed = errors.New("democrat: store already destroyed")

// ErrInvalidChildren is raised when a children value is not one of nil,
// *Element, slice or array, *Map, or a map with string keys.
var ErrInvalidChildren = errors.New("democrat: invalid children type")

// ErrMissingProvider is raised by MustUseContext when there is neither an
// enclosing provider nor a default value.
var ErrMissingProvider = errors.New("democrat: missing context provider")

// ErrInvalidPatchPath is reported when a patch path does not resolve to a
// component of the tree.
var ErrInvalidPatchPath = errors.New("democrat: invalid patch path")

// ErrPatchHookMismatch is reported when the hook addressed by a patch is not
// of the patch's kind, or the value cannot be converted to the hook's type.
var ErrPatchHookMismatch = errors.New("democrat: patch does not match hook")

// FatalError is the panic value used for programmer errors. Recover it and
// use errors.Is against the sentinels above to tell them apart.
type FatalError struct {
	// Code is the registered error code, e.g. "DEM001".
	Code string

	// Op is the operation that failed (e.g. "UseState", "Destroy").
	Op string

	// Err is the sentinel.
	Err error

	detail *derrors.Error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Err.Error(), e.Op, e.detail.Message)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Format returns a multi-line description suitable for a terminal.
func (e *FatalError) Format() string { return e.detail.Format() }

func newFatal(code string, sentinel error, op, format string, args ...any) *FatalError {
	d := derrors.New(code).WithMessage(format, args...).Wrap(sentinel)
	return &FatalError{Code: code, Op: op, Err: sentinel, detail: d}
}

// withCaller records the call site skip frames above the caller of withCaller.
func (e *FatalError) withCaller(skip int) *FatalError {
	e.detail.WithCaller(skip + 1)
	return e
}
