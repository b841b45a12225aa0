package starlark

import (
	"testing"

	"github.com/leapstack-labs/paramimport/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestNewEnvironment_Predeclared(t *testing.T) {
	env, err := NewEnvironment(WithBuiltins(starlark.StringDict{
		"answer": starlark.MakeInt(42),
	}))
	require.NoError(t, err)

	globals := env.Predeclared()
	for _, key := range []string{"exit", "__name__", "answer"} {
		_, ok := globals[key]
		assert.True(t, ok, "global %q not found", key)
	}
	assert.Equal(t, starlark.String(ModuleName), globals["__name__"])
}

func TestNewEnvironment_ConflictWithBuiltin(t *testing.T) {
	_, err := NewEnvironment(WithBuiltins(starlark.StringDict{
		"exit": starlark.None,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with builtin")
}

func TestNormalizeModule(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"parameter_generator_catkin", "parameter_generator_catkin"},
		{"parameter_generator_catkin.star", "parameter_generator_catkin"},
		{"@rosparam_handler//:parameter_generator_catkin.star", "parameter_generator_catkin"},
		{"rosparam_handler/parameter_generator_catkin.py", "parameter_generator_catkin"},
		{"rosparam_handler.parameter_generator_catkin", "parameter_generator_catkin"},
		{" spaced ", "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeModule(tt.input))
		})
	}
}

func TestEnvironment_Load(t *testing.T) {
	members := starlark.StringDict{"Gen": starlark.String("gen")}
	env, err := NewEnvironment(WithModule(members, "generators"))
	require.NoError(t, err)

	got, err := env.Load(nil, "@pkg//:generators.star")
	require.NoError(t, err)
	assert.Equal(t, members, got)

	_, err = env.Load(nil, "missing")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing", loadErr.Module)

	require.NoError(t, env.AddModule("more", members))
	assert.Error(t, env.AddModule("more.star", members), "duplicate module")
}

func TestEnvironment_Preloaded(t *testing.T) {
	gen := starlark.String("gen")
	env, err := NewEnvironment(
		WithBuiltins(starlark.StringDict{"Gen": gen}),
		WithModule(starlark.StringDict{"Gen": gen}, "generators"),
		WithModule(starlark.StringDict{"Gen": gen, "helper": gen}, "partial"),
	)
	require.NoError(t, err)

	assert.True(t, env.Preloaded("pkg.generators", nil))
	assert.True(t, env.Preloaded("generators", []string{"Gen"}))
	assert.False(t, env.Preloaded("generators", []string{"Other"}), "not a member")
	assert.False(t, env.Preloaded("partial", nil), "helper is not predeclared")
	assert.True(t, env.Preloaded("partial", []string{"Gen"}))
	assert.False(t, env.Preloaded("missing", nil))
}

func TestEnvironment_ExecWithThread(t *testing.T) {
	env, err := NewEnvironment(WithModule(starlark.StringDict{
		"double": starlark.NewBuiltin("double", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var n int
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &n); err != nil {
				return nil, err
			}
			return starlark.MakeInt(n * 2), nil
		}),
	}, "math"))
	require.NoError(t, err)

	src := `
load("math", "double")
print("loading")
x = double(21)
if __name__ == "__main__":
    exit(1)
`
	thread := env.NewThread("test", testutil.NewTestLogger(t))
	globals, err := starlark.ExecFileOptions(FileOptions, thread, "test.star", src, env.Predeclared())
	require.NoError(t, err)
	assert.Equal(t, "42", globals["x"].String())
	_, ok := globals["double"]
	assert.False(t, ok, "load bindings are file-local")
}

func TestExit(t *testing.T) {
	env, err := NewEnvironment()
	require.NoError(t, err)

	thread := env.NewThread("test", nil)
	_, err = starlark.ExecFileOptions(FileOptions, thread, "test.star", "x = 1\nexit(3)\n", env.Predeclared())
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "3", exitErr.Code.String())
}
