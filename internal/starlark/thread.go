package starlark

import (
	"log/slog"

	"go.starlark.net/starlark"
)

// NewThread creates a fresh thread for one execution. print() output from the
// borrowed file goes to the logger at debug level; load() is served by the
// environment.
func (e *Environment) NewThread(name string, logger *slog.Logger) *starlark.Thread {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			logger.Debug("starlark print", "thread", thread.Name, "msg", msg)
		},
		Load: e.Load,
	}
}
