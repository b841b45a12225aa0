package starlark

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func dict(t *testing.T, kv ...starlark.Value) *starlark.Dict {
	t.Helper()
	d := starlark.NewDict(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, d.SetKey(kv[i], kv[i+1]))
	}
	return d
}

func TestToGo(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 80)

	tests := []struct {
		name  string
		input starlark.Value
		want  any
	}{
		{name: "none", input: starlark.None, want: nil},
		{name: "nil", input: nil, want: nil},
		{name: "string", input: starlark.String("Hello World"), want: "Hello World"},
		{name: "int", input: starlark.MakeInt(42), want: int64(42)},
		{name: "negative int", input: starlark.MakeInt(-7), want: int64(-7)},
		{name: "int beyond int64", input: starlark.MakeBigInt(huge), want: huge.String()},
		{name: "float", input: starlark.Float(0.25), want: 0.25},
		{name: "bool", input: starlark.True, want: true},
		{
			name:  "vector default",
			input: starlark.NewList([]starlark.Value{starlark.MakeInt(1), starlark.MakeInt(2)}),
			want:  []any{int64(1), int64(2)},
		},
		{
			name:  "tuple",
			input: starlark.Tuple{starlark.String("a"), starlark.Float(1.5)},
			want:  []any{"a", 1.5},
		},
		{
			name:  "map default",
			input: dict(t, starlark.String("gain"), starlark.Float(2), starlark.String("name"), starlark.String("left")),
			want:  map[string]any{"gain": 2.0, "name": "left"},
		},
		{
			name:  "nested",
			input: starlark.NewList([]starlark.Value{starlark.Tuple{starlark.None}}),
			want:  []any{[]any{nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToGo_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		input     starlark.Value
		errSubstr string
	}{
		{
			name:      "non-string dict key",
			input:     dict(t, starlark.MakeInt(1), starlark.String("one")),
			errSubstr: "want string, got int",
		},
		{
			name:      "function",
			input:     starlark.NewBuiltin("f", nil),
			errSubstr: "cannot convert builtin_function_or_method",
		},
		{
			name:      "nested set",
			input:     starlark.NewList([]starlark.Value{new(starlark.Set)}),
			errSubstr: "index 0: cannot convert set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToGo(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}
