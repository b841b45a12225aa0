package loader

import (
	"reflect"
	"strings"

	"github.com/leapstack-labs/paramimport/internal/paramgen"
	"go.starlark.net/starlark"
)

// Matcher reports whether a namespace value is the descriptor being looked for.
type Matcher func(v starlark.Value) bool

// DescriptorMatcher accepts values that expose parameter declarations.
func DescriptorMatcher(v starlark.Value) bool {
	_, ok := paramgen.FromValue(v)
	return ok
}

// TypeNameMatcher accepts values whose qualified Go type name or Starlark
// type name contains marker.
func TypeNameMatcher(marker string) Matcher {
	return func(v starlark.Value) bool {
		return strings.Contains(QualifiedTypeName(v), marker) ||
			strings.Contains(v.Type(), marker)
	}
}

// QualifiedTypeName returns the import path and name of v's dynamic type,
// e.g. "github.com/leapstack-labs/paramimport/internal/paramgen.Generator".
// Pointers are dereferenced; unnamed types use their literal form.
func QualifiedTypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
