// Package paramgen implements the parameter-declaration DSL that .params
// files are written against. A file builds a ParameterGenerator, declares
// parameters on it, and normally ends with exit(gen.generate(...)).
package paramgen

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// Descriptor is the capability borrowed files are searched for: a value
// that exposes its accumulated parameter declarations.
type Descriptor interface {
	starlark.Value
	Parameters() []*Parameter
}

// Parameter is one declared parameter.
type Parameter struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	Description  string `json:"description" yaml:"description"`
	Group        string `json:"group,omitempty" yaml:"group,omitempty"`
	Level        int    `json:"level,omitempty" yaml:"level,omitempty"`
	EditMethod   string `json:"edit_method,omitempty" yaml:"edit_method,omitempty"`
	Default      any    `json:"default,omitempty" yaml:"default,omitempty"`
	Min          any    `json:"min,omitempty" yaml:"min,omitempty"`
	Max          any    `json:"max,omitempty" yaml:"max,omitempty"`
	Configurable bool   `json:"configurable,omitempty" yaml:"configurable,omitempty"`
	GlobalScope  bool   `json:"global_scope,omitempty" yaml:"global_scope,omitempty"`
	Constant     bool   `json:"constant,omitempty" yaml:"constant,omitempty"`

	// Enum lists the entry names of an enum parameter; the value of entry i is i.
	Enum []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Target records the arguments of generate().
type Target struct {
	Package   string `json:"package" yaml:"package"`
	Node      string `json:"node" yaml:"node"`
	ClassName string `json:"class_name" yaml:"class_name"`
}

// Scalar parameter types.
const (
	TypeString = "std::string"
	TypeInt    = "int"
	TypeDouble = "double"
	TypeBool   = "bool"
)

var scalarTypes = map[string]bool{
	TypeString: true,
	TypeInt:    true,
	TypeDouble: true,
	TypeBool:   true,
}

// containerKind returns "vector" or "map" and the element type for
// std::vector<T> and std::map<std::string,T>, or empty strings otherwise.
func containerKind(paramtype string) (kind, elem string) {
	t := strings.ReplaceAll(paramtype, " ", "")
	switch {
	case strings.HasPrefix(t, "std::vector<") && strings.HasSuffix(t, ">"):
		return "vector", strings.TrimSuffix(strings.TrimPrefix(t, "std::vector<"), ">")
	case strings.HasPrefix(t, "std::map<std::string,") && strings.HasSuffix(t, ">"):
		return "map", strings.TrimSuffix(strings.TrimPrefix(t, "std::map<std::string,"), ">")
	}
	return "", ""
}

// IsScalar reports whether paramtype is a scalar type.
func IsScalar(paramtype string) bool {
	return scalarTypes[paramtype]
}

// IsValidType reports whether paramtype is a scalar or a vector/map of scalars.
func IsValidType(paramtype string) bool {
	if IsScalar(paramtype) {
		return true
	}
	_, elem := containerKind(paramtype)
	return scalarTypes[elem]
}

// checkValue verifies that v can hold a value of paramtype.
func checkValue(paramtype string, v starlark.Value) error {
	if kind, elem := containerKind(paramtype); kind != "" {
		switch kind {
		case "vector":
			list, ok := v.(*starlark.List)
			if !ok {
				return fmt.Errorf("want list for %s, got %s", paramtype, v.Type())
			}
			for i := 0; i < list.Len(); i++ {
				if err := checkValue(elem, list.Index(i)); err != nil {
					return fmt.Errorf("index %d: %w", i, err)
				}
			}
		case "map":
			dict, ok := v.(*starlark.Dict)
			if !ok {
				return fmt.Errorf("want dict for %s, got %s", paramtype, v.Type())
			}
			for _, item := range dict.Items() {
				if _, ok := item[0].(starlark.String); !ok {
					return fmt.Errorf("dict key %s is not a string", item[0])
				}
				if err := checkValue(elem, item[1]); err != nil {
					return fmt.Errorf("key %s: %w", item[0], err)
				}
			}
		}
		return nil
	}

	ok := false
	switch paramtype {
	case TypeString:
		_, ok = v.(starlark.String)
	case TypeInt:
		_, ok = v.(starlark.Int)
	case TypeDouble:
		switch v.(type) {
		case starlark.Int, starlark.Float:
			ok = true
		}
	case TypeBool:
		_, ok = v.(starlark.Bool)
	}
	if !ok {
		return fmt.Errorf("want %s, got %s", paramtype, v.Type())
	}
	return nil
}
