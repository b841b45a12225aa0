package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "paramimport", cmd.Use)
	for _, name := range []string{"version", "packages", "resolve", "strip", "load", "completion"} {
		sub, _, err := cmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, sub.Name())
		}
	}

	for _, flag := range []string{"config", "package-path", "params-dir", "exit-pattern", "marker", "temp-dir", "concurrency", "timeout", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	quiet := newLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Info("hidden")
	assert.Empty(t, buf.String())
	quiet.Warn("shown", "file", "Tutorial.params")
	assert.Contains(t, buf.String(), "msg=shown file=Tutorial.params")

	buf.Reset()
	verbose := newLogger(&buf, true)
	assert.True(t, verbose.Enabled(context.Background(), slog.LevelDebug))
	verbose.Debug("details")
	assert.Contains(t, buf.String(), "level=DEBUG msg=details")
}

func TestCompletionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"completion", "bash"})

	assert.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "paramimport")
}
