package sheet

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/query"
)

// Errors returned by sheet operations. They are re-exported from the
// subpackages so callers only need to import this one.
var (
	ErrInvalidReference = address.ErrInvalidReference
	ErrUnknownColumn    = address.ErrUnknownColumn
	ErrRowOutOfRange    = grid.ErrRowOutOfRange
	ErrInvalidArgument  = grid.ErrInvalidArgument
	ErrInvalidCondition = query.ErrInvalidCondition
)

// ErrWatchExists indicates a watch with the same name is already registered.
var ErrWatchExists = errors.New("watch already exists")

// ErrWatchNotFound indicates no watch is registered under the given name.
var ErrWatchNotFound = errors.New("watch not found")

// ErrUnknownAction indicates an action name with no registered handler.
var ErrUnknownAction = errors.New("unknown action")

// ErrClosed indicates the sheet was closed.
var ErrClosed = errors.New("sheet closed")

// OperationError represents a failed sheet operation.
type OperationError struct {
	Op   string // "set", "add", "sql", "tail", ...
	Path string
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// newOperationError creates a new OperationError.
func newOperationError(op, path string, err error) *OperationError {
	return &OperationError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
