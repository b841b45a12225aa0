// Package starlark provides the Starlark execution environment used to run
// borrowed parameter files: predeclared builtins, load() modules, threads and
// value conversion between Go and Starlark.
package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// ToGo converts a parameter value declared in a borrowed file to plain Go.
//
//	None          → nil
//	str           → string
//	int           → int64 (or its decimal string when it does not fit)
//	float         → float64
//	bool          → bool
//	list, tuple   → []any
//	dict          → map[string]any
//
// Dict keys must be strings. Any other value is rejected, since generated
// code has no way to represent it.
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		if i64, ok := val.Int64(); ok {
			return i64, nil
		}
		return val.String(), nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		return sequenceToGo(val)
	case starlark.Tuple:
		return sequenceToGo(val)
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("dict key %s: want string, got %s", item[0], item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			out[key] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %s to a parameter value", v.Type())
	}
}

func sequenceToGo(seq starlark.Indexable) ([]any, error) {
	out := make([]any, seq.Len())
	for i := range out {
		gv, err := ToGo(seq.Index(i))
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = gv
	}
	return out, nil
}
