// Package loader executes borrowed parameter files as libraries and extracts
// the descriptor they build.
//
// A borrowed file is a script: it builds a generator through top-level
// statements and normally ends by calling exit(). The loader blanks the
// comments and the Python imports of the generator module, cuts the text
// before the last exit( call, runs what is left in a fresh namespace and
// returns the first global that the matcher accepts.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/paramimport/internal/paramgen"
	"github.com/leapstack-labs/paramimport/internal/source"
	starctx "github.com/leapstack-labs/paramimport/internal/starlark"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// DefaultExitPattern matches the self-termination call of a borrowed file.
const DefaultExitPattern = `exit\(`

// Loader loads borrowed parameter files. It is safe for concurrent use; each
// load gets its own thread, namespace and temporary file.
type Loader struct {
	env     *starctx.Environment
	pattern *regexp.Regexp
	matcher Matcher
	logger  *slog.Logger
	tempDir string
}

// Option is a functional option for configuring a Loader.
type Option func(*Loader)

// WithEnvironment sets the execution environment. The default provides the
// ParameterGenerator DSL.
func WithEnvironment(env *starctx.Environment) Option {
	return func(l *Loader) {
		l.env = env
	}
}

// WithExitPattern sets the pattern the source is truncated before.
func WithExitPattern(pattern *regexp.Regexp) Option {
	return func(l *Loader) {
		l.pattern = pattern
	}
}

// WithMatcher sets the descriptor matcher. The default is DescriptorMatcher.
func WithMatcher(m Matcher) Option {
	return func(l *Loader) {
		l.matcher = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithTempDir sets the directory truncated sources are written to. The
// default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(l *Loader) {
		l.tempDir = dir
	}
}

// NewEnvironment returns the default execution environment: the
// ParameterGenerator builtins, also loadable under the generator module names.
func NewEnvironment() (*starctx.Environment, error) {
	return starctx.NewEnvironment(
		starctx.WithBuiltins(paramgen.Builtins()),
		starctx.WithModule(paramgen.Builtins(), paramgen.ModuleNames...),
	)
}

// New creates a loader.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		pattern: regexp.MustCompile(DefaultExitPattern),
		matcher: DescriptorMatcher,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.env == nil {
		env, err := NewEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create environment: %w", err)
		}
		l.env = env
	}
	return l, nil
}

// LoadFile executes the file at path and returns the first public global, in
// definition order, that the matcher accepts. The second result is false when
// the file defines no such value; that is not an error.
//
// Unreadable files, lexer errors and errors raised by the file's statements
// are returned as *ReadError, *lexer.Error and *ExecError.
func (l *Loader) LoadFile(ctx context.Context, path string) (starlark.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	id := uuid.NewString()
	logger := l.logger.With("load_id", id, "file", path)

	content, err := os.ReadFile(path) //nolint:gosec // G304: loading caller-named files is the point
	if err != nil {
		return nil, false, &ReadError{File: path, Err: err}
	}

	stripped, err := source.StripComments(string(content))
	if err != nil {
		return nil, false, fmt.Errorf("failed to tokenize %s: %w", path, err)
	}
	dropped := 0
	stripped, err = source.DropImports(stripped, func(imp source.Import) bool {
		if !l.env.Preloaded(imp.Module, imp.Names) {
			return false
		}
		logger.Debug("dropping import of predeclared module", "module", imp.Module, "line", imp.Start.Line)
		dropped++
		return true
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to tokenize %s: %w", path, err)
	}

	execPath := path
	text, cut := source.CutBeforeLast(stripped, l.pattern)
	switch {
	case cut:
		logger.Debug("truncated before exit call", "offset", len(text))
	case dropped > 0:
		logger.Debug("no exit call, executing without dropped imports")
	default:
		logger.Debug("no exit call, executing original file")
	}
	if cut || dropped > 0 {
		tmp, err := l.writeTemp(text)
		if err != nil {
			return nil, false, err
		}
		defer l.removeTemp(tmp, logger)
		execPath = tmp
	}

	globals, order, err := l.exec(ctx, execPath, "load:"+id, logger)
	if err != nil {
		return nil, false, &ExecError{File: path, Executed: execPath, Err: err}
	}

	name, value, ok := l.extract(globals, order, logger)
	if !ok {
		logger.Debug("no descriptor found", "globals", len(globals))
		return nil, false, nil
	}
	logger.Debug("descriptor found", "name", name, "type", value.Type())
	return value, true, nil
}

// writeTemp writes src to a fresh temporary file and returns its path.
func (l *Loader) writeTemp(src string) (string, error) {
	f, err := os.CreateTemp(l.tempDir, "paramimport-*.params")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := f.Name()

	if _, err := f.WriteString(src); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}
	return name, nil
}

func (l *Loader) removeTemp(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove temporary file", "temp", path, "error", err)
	}
}

// exec runs the file at path in a fresh namespace. It returns the frozen
// globals and the global names in order of first binding.
func (l *Loader) exec(ctx context.Context, path, threadName string, logger *slog.Logger) (starlark.StringDict, []string, error) {
	predeclared := l.env.Predeclared()

	f, err := starctx.FileOptions.Parse(path, nil, 0)
	if err != nil {
		return nil, nil, err
	}
	prog, err := starlark.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, nil, err
	}

	thread := l.env.NewThread(threadName, logger)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return nil, nil, err
	}
	globals.Freeze()

	return globals, definitionOrder(f, globals), nil
}

// definitionOrder lists the file's globals in order of first binding.
func definitionOrder(f *syntax.File, globals starlark.StringDict) []string {
	mod, ok := f.Module.(*resolve.Module)
	if !ok {
		return globals.Keys()
	}

	names := make([]string, 0, len(mod.Globals))
	for _, b := range mod.Globals {
		names = append(names, b.First.Name)
	}
	return names
}

// extract returns the first public global accepted by the matcher. Later
// matches are ignored.
func (l *Loader) extract(globals starlark.StringDict, order []string, logger *slog.Logger) (string, starlark.Value, bool) {
	var (
		found   string
		value   starlark.Value
		ignored []string
	)
	for _, name := range order {
		if strings.HasPrefix(name, "_") {
			continue
		}
		v, ok := globals[name]
		if !ok || !l.matcher(v) {
			continue
		}
		if value == nil {
			found, value = name, v
			continue
		}
		ignored = append(ignored, name)
	}

	if len(ignored) > 0 {
		logger.Debug("ignoring additional descriptors", "chosen", found, "ignored", ignored)
	}
	return found, value, value != nil
}
