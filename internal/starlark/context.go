package starlark

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FileOptions is the Starlark dialect borrowed files are parsed with. The
// files are written as Python scripts, so top-level control flow, global
// reassignment, while loops, sets and recursion are all allowed.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Environment holds the predeclared globals and the modules available to
// load() while a borrowed file runs. It is safe for concurrent use; each
// execution still gets its own thread and namespace.
type Environment struct {
	predeclared starlark.StringDict

	// modules maps a normalized module name to its members
	modules map[string]starlark.StringDict

	// mu protects modules
	mu sync.RWMutex
}

// EnvOption is a functional option for configuring an Environment.
type EnvOption func(*Environment)

// WithBuiltins adds predeclared globals, e.g. a DSL's constructors.
func WithBuiltins(builtins starlark.StringDict) EnvOption {
	return func(e *Environment) {
		for name, value := range builtins {
			e.predeclared[name] = value
		}
	}
}

// WithModule makes members loadable under the given module names.
func WithModule(members starlark.StringDict, names ...string) EnvOption {
	return func(e *Environment) {
		for _, name := range names {
			e.modules[NormalizeModule(name)] = members
		}
	}
}

// NewEnvironment creates an environment. It fails when an option tries to
// shadow exit or __name__.
func NewEnvironment(opts ...EnvOption) (*Environment, error) {
	env := &Environment{
		predeclared: make(starlark.StringDict),
		modules:     make(map[string]starlark.StringDict),
	}
	for _, opt := range opts {
		opt(env)
	}

	predeclared, err := Predeclared(env.predeclared)
	if err != nil {
		return nil, err
	}
	env.predeclared = predeclared
	return env, nil
}

// Predeclared returns the predeclared globals for one execution.
func (e *Environment) Predeclared() starlark.StringDict {
	return e.predeclared
}

// AddModule registers members under name after construction.
// Returns error if the module is already registered.
func (e *Environment) AddModule(name string, members starlark.StringDict) error {
	key := NormalizeModule(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.modules[key]; ok {
		return fmt.Errorf("module %q already registered", key)
	}
	e.modules[key] = members
	return nil
}

// Load implements starlark.Thread.Load for the registered modules.
func (e *Environment) Load(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	key := NormalizeModule(module)

	e.mu.RLock()
	members, ok := e.modules[key]
	e.mu.RUnlock()

	if !ok {
		return nil, &LoadError{Module: module}
	}
	return members, nil
}

// Preloaded reports whether importing names from module would bind nothing
// new: the module is registered and each name is one of its members that is
// also predeclared. Nil names stands for all of the module's members.
func (e *Environment) Preloaded(module string, names []string) bool {
	e.mu.RLock()
	members, ok := e.modules[NormalizeModule(module)]
	e.mu.RUnlock()
	if !ok {
		return false
	}

	if names == nil {
		names = members.Keys()
	}
	for _, name := range names {
		if _, ok := members[name]; !ok {
			return false
		}
		if _, ok := e.predeclared[name]; !ok {
			return false
		}
	}
	return true
}

// NormalizeModule reduces the ways a module can be spelled to its base name:
// "@rosparam_handler//:parameter_generator_catkin.star",
// "rosparam_handler/parameter_generator_catkin.py" and
// "rosparam_handler.parameter_generator_catkin" all become
// "parameter_generator_catkin".
func NormalizeModule(module string) string {
	name := strings.TrimSpace(module)
	name = strings.TrimSuffix(name, ".star")
	name = strings.TrimSuffix(name, ".py")
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	name = path.Base(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// LoadError represents a load() of a module the environment does not know.
type LoadError struct {
	Module string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load %q: unknown module", e.Module)
}
