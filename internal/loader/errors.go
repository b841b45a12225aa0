package loader

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
)

// ReadError represents a borrowed file that could not be read.
type ReadError struct {
	File string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.File, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ExecError represents a failure while parsing or running the top-level
// statements of a borrowed file. Executed names the file that actually ran,
// which is a temporary copy when the source was truncated.
type ExecError struct {
	File     string
	Executed string
	Err      error
}

func (e *ExecError) Error() string {
	if e.Executed != "" && e.Executed != e.File {
		return fmt.Sprintf("failed to execute %s (as %s): %v", e.File, e.Executed, e.Err)
	}
	return fmt.Sprintf("failed to execute %s: %v", e.File, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Backtrace returns the Starlark call stack of the failure, or the plain
// error text when the failure happened before execution started.
func (e *ExecError) Backtrace() string {
	var evalErr *starlark.EvalError
	if errors.As(e.Err, &evalErr) {
		return evalErr.Backtrace()
	}
	return e.Err.Error()
}
