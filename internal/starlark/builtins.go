package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// ModuleName is the value of __name__ while a borrowed file runs. It is never
// "__main__", so `if __name__ == "__main__":` blocks stay inert.
const ModuleName = "__paramimport__"

// ExitError is returned when a borrowed file calls exit(). The host process
// keeps running; the call fails the load like any other Starlark error.
type ExitError struct {
	Code starlark.Value
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit(%s) called while loading as a library", e.Code)
}

// exitBuiltin implements exit([code]).
func exitBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var code starlark.Value = starlark.None
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &code); err != nil {
		return nil, err
	}
	return nil, &ExitError{Code: code}
}

// Predeclared returns the builtins every borrowed file sees: exit, __name__,
// and the given extras. Extras may not shadow exit or __name__.
func Predeclared(extra starlark.StringDict) (starlark.StringDict, error) {
	globals := starlark.StringDict{
		"exit":     starlark.NewBuiltin("exit", exitBuiltin),
		"__name__": starlark.String(ModuleName),
	}

	for name, value := range extra {
		if _, ok := globals[name]; ok {
			return nil, fmt.Errorf("predeclared %q conflicts with builtin", name)
		}
		globals[name] = value
	}

	return globals, nil
}
