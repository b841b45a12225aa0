package importer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/paramimport/internal/loader"
	"github.com/leapstack-labs/paramimport/internal/paramgen"
	"github.com/leapstack-labs/paramimport/internal/registry"
	"github.com/leapstack-labs/paramimport/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

const tutorialParams = `#!/usr/bin/env python
load("parameter_generator_catkin", "ParameterGenerator")

gen = ParameterGenerator()

# Parameters with different types
gen.add("int_param", paramtype="int", description="An Integer parameter", default=1, min=0, max=10)
gen.add("str_param", paramtype="std::string", description="A string parameter", default="Hello World")

exit(gen.generate("rosparam_tutorials", "example_node", "Tutorial"))
`

func newImporter(t *testing.T, root string, opts ...Option) *Importer {
	t.Helper()

	l, err := loader.New(loader.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)

	resolver := registry.NewResolver([]string{root}, registry.WithLogger(testutil.NewTestLogger(t)))
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	return New(resolver, l, opts...)
}

func parameterNames(t *testing.T, v starlark.Value) []string {
	t.Helper()
	d, ok := paramgen.FromValue(v)
	require.True(t, ok)

	var names []string
	for _, p := range d.Parameters() {
		names = append(names, p.Name)
	}
	return names
}

func TestLoadGenerator(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, "src/rosparam_tutorials", "rosparam_tutorials", map[string]string{
		"cfg/Tutorial.params": tutorialParams,
	})

	imp := newImporter(t, root)

	v, ok, err := imp.LoadGenerator(context.Background(), "rosparam_tutorials", "Tutorial.params", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"int_param", "str_param"}, parameterNames(t, v))
}

func TestLoadGenerator_UnknownPackage(t *testing.T) {
	imp := newImporter(t, t.TempDir())

	v, ok, err := imp.LoadGenerator(context.Background(), "no_such_package", "Tutorial.params", "")
	require.NoError(t, err, "unknown package is not an error")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestLoadGenerator_NoDescriptor(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, "empty_pkg", "empty_pkg", map[string]string{
		"cfg/Empty.params": "x = 1\nexit(0)\n",
	})

	_, ok, err := newImporter(t, root).LoadGenerator(context.Background(), "empty_pkg", "Empty.params", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadGenerator_MissingFile(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, "pkg", "pkg", nil)

	_, ok, err := newImporter(t, root).LoadGenerator(context.Background(), "pkg", "Missing.params", "params")
	assert.False(t, ok)

	var readErr *loader.ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "cfg", filepath.Base(filepath.Dir(readErr.File)), "the legacy cfg path is the one reported")
}

func TestParamsPath(t *testing.T) {
	pkgDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(pkgDir, "params", "Custom.params"), "gen = ParameterGenerator()\n")
	testutil.WriteFile(t, filepath.Join(pkgDir, "cfg", "Legacy.params"), "gen = ParameterGenerator()\n")

	imp := New(nil, nil)

	tests := []struct {
		name         string
		file         string
		relativePath string
		want         string
	}{
		{name: "relative path hit", file: "Custom.params", relativePath: "params", want: filepath.Join(pkgDir, "params", "Custom.params")},
		{name: "slashes are cleaned", file: "Custom.params", relativePath: "/params/", want: filepath.Join(pkgDir, "params", "Custom.params")},
		{name: "fallback to cfg", file: "Legacy.params", relativePath: "params", want: filepath.Join(pkgDir, "cfg", "Legacy.params")},
		{name: "default is cfg", file: "Legacy.params", relativePath: "", want: filepath.Join(pkgDir, "cfg", "Legacy.params")},
		{name: "neither exists", file: "Nope.params", relativePath: "params", want: filepath.Join(pkgDir, "cfg", "Nope.params")},
		{name: "directory is not a file", file: "params", relativePath: ".", want: filepath.Join(pkgDir, "cfg", "params")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imp.ParamsPath(pkgDir, tt.file, tt.relativePath))
		})
	}

	custom := New(nil, nil, WithParamsDir("params"))
	assert.Equal(t, filepath.Join(pkgDir, "params", "Custom.params"), custom.ParamsPath(pkgDir, "Custom.params", ""))
}

func TestLoadAll(t *testing.T) {
	root := t.TempDir()
	var requests []Request
	for n := range 8 {
		name := fmt.Sprintf("pkg_%d", n)
		testutil.WritePackage(t, root, name, name, map[string]string{
			"cfg/Node.params": fmt.Sprintf("gen = ParameterGenerator()\ngen.add(%q, \"int\", \"\")\nexit(gen.generate(%q, \"node\", \"Node\"))\n", "param_"+name, name),
		})
		requests = append(requests, Request{Package: name, File: "Node.params"})
	}
	requests = append(requests, Request{Package: "missing", File: "Node.params"})

	results, err := newImporter(t, root, WithConcurrency(3)).LoadAll(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, results, len(requests))

	for n := range 8 {
		assert.Equal(t, requests[n], results[n].Request)
		require.True(t, results[n].Found, "request %d", n)
		assert.Equal(t, []string{fmt.Sprintf("param_pkg_%d", n)}, parameterNames(t, results[n].Value))
	}
	assert.False(t, results[8].Found)
	assert.Equal(t, "missing:Node.params", results[8].Request.String())
}

func TestLoadAll_HardFailure(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, "good", "good", map[string]string{
		"cfg/Good.params": "gen = ParameterGenerator()\nexit(0)\n",
	})
	testutil.WritePackage(t, root, "bad", "bad", map[string]string{
		"cfg/Bad.params": "gen = ParameterGenerator()\ngen.add(\"x\", \"float\", \"\")\nexit(0)\n",
	})

	results, err := newImporter(t, root).LoadAll(context.Background(), []Request{
		{Package: "good", File: "Good.params"},
		{Package: "bad", File: "Bad.params"},
	})
	assert.Nil(t, results)

	var execErr *loader.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, err.Error(), "package bad")
}
