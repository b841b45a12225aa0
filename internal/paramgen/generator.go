package paramgen

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	starctx "github.com/leapstack-labs/paramimport/internal/starlark"
	"go.starlark.net/starlark"
)

// TypeName is the Starlark type name of a generator.
const TypeName = "ParameterGenerator"

// ModuleNames are the load() names that resolve to Builtins.
var ModuleNames = []string{"parameter_generator_catkin", "parameter_generator"}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Generator accumulates parameter declarations. Groups returned by
// add_group are Generators that share their root's declaration list.
type Generator struct {
	root  *Generator
	group string // "" for the root, "a/b" for nested groups

	// Root-only state
	params []*Parameter
	names  map[string]bool
	groups map[string]bool
	target *Target
	frozen bool
}

var (
	_ Descriptor        = (*Generator)(nil)
	_ starlark.HasAttrs = (*Generator)(nil)
)

// New creates an empty root generator.
func New() *Generator {
	g := &Generator{
		names:  make(map[string]bool),
		groups: make(map[string]bool),
	}
	g.root = g
	return g
}

// Builtins returns the globals that borrowed files use to build generators.
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		TypeName: starlark.NewBuiltin(TypeName, newGenerator),
	}
}

func newGenerator(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return New(), nil
}

// FromValue returns v as a Descriptor if it is one.
func FromValue(v starlark.Value) (Descriptor, bool) {
	d, ok := v.(Descriptor)
	return d, ok
}

// Parameters returns the declarations of this generator in declaration
// order. For a group, only the group's (and its subgroups') declarations are
// returned.
func (g *Generator) Parameters() []*Parameter {
	var out []*Parameter
	for _, p := range g.root.params {
		if g.group == "" || p.Group == g.group || strings.HasPrefix(p.Group, g.group+"/") {
			out = append(out, p)
		}
	}
	return out
}

// Group returns the group path, or "" for the root generator.
func (g *Generator) Group() string {
	return g.group
}

// Groups returns the group paths declared under the root, sorted.
func (g *Generator) Groups() []string {
	groups := make([]string, 0, len(g.root.groups))
	for name := range g.root.groups {
		groups = append(groups, name)
	}
	sort.Strings(groups)
	return groups
}

// Target returns the arguments of the generate() call, if one ran.
func (g *Generator) Target() (Target, bool) {
	if g.root.target == nil {
		return Target{}, false
	}
	return *g.root.target, true
}

// starlark.Value

func (g *Generator) String() string {
	if g.group != "" {
		return fmt.Sprintf("<%s group %q>", TypeName, g.group)
	}
	return fmt.Sprintf("<%s with %d parameters>", TypeName, len(g.root.params))
}

// Type returns the Starlark type name.
func (g *Generator) Type() string { return TypeName }

// Freeze makes the whole declaration tree immutable.
func (g *Generator) Freeze() { g.root.frozen = true }

// Truth returns true.
func (g *Generator) Truth() starlark.Bool { return starlark.True }

// Hash fails: generators are mutable.
func (g *Generator) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", TypeName)
}

// starlark.HasAttrs

var generatorMethods = map[string]*starlark.Builtin{
	"add":       starlark.NewBuiltin("add", generatorAdd),
	"add_enum":  starlark.NewBuiltin("add_enum", generatorAddEnum),
	"add_group": starlark.NewBuiltin("add_group", generatorAddGroup),
	"generate":  starlark.NewBuiltin("generate", generatorGenerate),
}

// Attr returns the named method bound to g, or nil if there is none.
func (g *Generator) Attr(name string) (starlark.Value, error) {
	b, ok := generatorMethods[name]
	if !ok {
		return nil, nil
	}
	return b.BindReceiver(g), nil
}

// AttrNames returns the method names, sorted.
func (g *Generator) AttrNames() []string {
	names := make([]string, 0, len(generatorMethods))
	for name := range generatorMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Generator) checkMutable(what string) error {
	if g.root.frozen {
		return fmt.Errorf("cannot %s: %s is frozen", what, TypeName)
	}
	return nil
}

// declare validates p and its raw Starlark values, then appends it.
func (g *Generator) declare(p *Parameter, def, min, max starlark.Value) error {
	if err := g.checkMutable("add parameter " + p.Name); err != nil {
		return err
	}
	if !identRe.MatchString(p.Name) {
		return fmt.Errorf("invalid parameter name %q", p.Name)
	}
	if g.root.names[p.Name] {
		return fmt.Errorf("parameter %q already declared", p.Name)
	}
	if !IsValidType(p.Type) {
		return fmt.Errorf("parameter %q: unsupported type %q", p.Name, p.Type)
	}
	if p.Configurable && !IsScalar(p.Type) {
		return fmt.Errorf("parameter %q: configurable parameters must be scalar, got %s", p.Name, p.Type)
	}
	if p.Constant && p.Configurable {
		return fmt.Errorf("parameter %q: cannot be both constant and configurable", p.Name)
	}
	if p.Constant && isNone(def) {
		return fmt.Errorf("parameter %q: constant parameters need a default", p.Name)
	}

	numeric := p.Type == TypeInt || p.Type == TypeDouble
	for _, v := range []struct {
		label string
		value starlark.Value
		dst   *any
	}{
		{"default", def, &p.Default},
		{"min", min, &p.Min},
		{"max", max, &p.Max},
	} {
		if isNone(v.value) {
			continue
		}
		if v.label != "default" && !numeric {
			return fmt.Errorf("parameter %q: %s is only allowed for int and double", p.Name, v.label)
		}
		if err := checkValue(p.Type, v.value); err != nil {
			return fmt.Errorf("parameter %q: %s: %w", p.Name, v.label, err)
		}
		value := v.value
		if i, ok := value.(starlark.Int); ok && p.Type == TypeDouble {
			value = i.Float()
		}
		goVal, err := starctx.ToGo(value)
		if err != nil {
			return fmt.Errorf("parameter %q: %s: %w", p.Name, v.label, err)
		}
		*v.dst = goVal
	}

	p.Group = g.group
	g.root.names[p.Name] = true
	g.root.params = append(g.root.params, p)
	return nil
}

func isNone(v starlark.Value) bool {
	return v == nil || v == starlark.None
}

// add(name, paramtype, description, level=0, edit_method="", default=None,
// min=None, max=None, configurable=False, global_scope=False, constant=False)
func generatorAdd(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	g := b.Receiver().(*Generator)

	var (
		p             Parameter
		def, min, max starlark.Value
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &p.Name,
		"paramtype", &p.Type,
		"description", &p.Description,
		"level?", &p.Level,
		"edit_method?", &p.EditMethod,
		"default?", &def,
		"min?", &min,
		"max?", &max,
		"configurable?", &p.Configurable,
		"global_scope?", &p.GlobalScope,
		"constant?", &p.Constant,
	); err != nil {
		return nil, err
	}

	if err := g.declare(&p, def, min, max); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.None, nil
}

// add_enum(name, description, entry_strings, default=None, paramtype="int")
func generatorAddEnum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	g := b.Receiver().(*Generator)

	var (
		name, description string
		entries           *starlark.List
		def               starlark.Value
		paramtype         = TypeInt
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name,
		"description", &description,
		"entry_strings", &entries,
		"default?", &def,
		"paramtype?", &paramtype,
	); err != nil {
		return nil, err
	}

	if paramtype != TypeInt {
		return nil, fmt.Errorf("%s: enum %q: only %s enums are supported", b.Name(), name, TypeInt)
	}
	if entries.Len() == 0 {
		return nil, fmt.Errorf("%s: enum %q: no entries", b.Name(), name)
	}

	names := make([]string, entries.Len())
	for i := 0; i < entries.Len(); i++ {
		s, ok := starlark.AsString(entries.Index(i))
		if !ok {
			return nil, fmt.Errorf("%s: enum %q: entry %d is %s, want string", b.Name(), name, i, entries.Index(i).Type())
		}
		if slices.Contains(names[:i], s) {
			return nil, fmt.Errorf("%s: enum %q: duplicate entry %q", b.Name(), name, s)
		}
		names[i] = s
	}

	index := 0
	switch d := def.(type) {
	case nil, starlark.NoneType:
	case starlark.String:
		index = slices.Index(names, string(d))
		if index < 0 {
			return nil, fmt.Errorf("%s: enum %q: default %s is not an entry", b.Name(), name, d)
		}
	case starlark.Int:
		i, ok := d.Int64()
		if !ok || i < 0 || int(i) >= len(names) {
			return nil, fmt.Errorf("%s: enum %q: default %s out of range", b.Name(), name, d)
		}
		index = int(i)
	default:
		return nil, fmt.Errorf("%s: enum %q: default must be an entry name or index, got %s", b.Name(), name, def.Type())
	}

	p := &Parameter{
		Name:         name,
		Type:         paramtype,
		Description:  description,
		EditMethod:   "enum",
		Configurable: true,
		Enum:         names,
	}
	err := g.declare(p, starlark.MakeInt(index), starlark.MakeInt(0), starlark.MakeInt(len(names)-1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.None, nil
}

// add_group(name) returns a generator whose declarations land in the group.
func generatorAddGroup(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	g := b.Receiver().(*Generator)

	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	if err := g.checkMutable("add group " + name); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("%s: invalid group name %q", b.Name(), name)
	}

	path := name
	if g.group != "" {
		path = g.group + "/" + name
	}
	if g.root.groups[path] {
		return nil, fmt.Errorf("%s: group %q already declared", b.Name(), path)
	}
	g.root.groups[path] = true

	return &Generator{root: g.root, group: path}, nil
}

// generate(pkgname, nodename, classname) records the target and returns 0,
// the exit status a standalone run would pass to exit().
func generatorGenerate(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	g := b.Receiver().(*Generator)

	var t Target
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"pkgname", &t.Package,
		"nodename", &t.Node,
		"classname", &t.ClassName,
	); err != nil {
		return nil, err
	}
	if err := g.checkMutable("generate"); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	g.root.target = &t
	return starlark.MakeInt(0), nil
}
