// Package importer borrows parameter definitions from other packages: it
// resolves the owning package, locates the definition file and hands it to
// the loader.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"
	"golang.org/x/sync/errgroup"
)

// LegacyParamsDir is the package sub-directory that is always searched.
const LegacyParamsDir = "cfg"

// PackageResolver maps a package name to its directory.
type PackageResolver interface {
	Resolve(name string) (string, bool)
}

// FileLoader executes a definition file and extracts its descriptor.
type FileLoader interface {
	LoadFile(ctx context.Context, path string) (starlark.Value, bool, error)
}

// Importer loads parameter definitions owned by other packages.
type Importer struct {
	resolver    PackageResolver
	loader      FileLoader
	logger      *slog.Logger
	paramsDir   string
	concurrency int
}

// Option is a functional option for configuring an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithParamsDir sets the relative path used when a request names none.
func WithParamsDir(dir string) Option {
	return func(i *Importer) {
		i.paramsDir = dir
	}
}

// WithConcurrency limits how many loads LoadAll runs at once. Zero or less
// means no limit.
func WithConcurrency(n int) Option {
	return func(i *Importer) {
		i.concurrency = n
	}
}

// New creates an importer.
func New(resolver PackageResolver, loader FileLoader, opts ...Option) *Importer {
	i := &Importer{
		resolver:  resolver,
		loader:    loader,
		logger:    slog.New(slog.DiscardHandler),
		paramsDir: LegacyParamsDir,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// LoadGenerator loads file from package pkg and returns the descriptor it
// defines. The second result is false when the package is unknown or the
// file defines no descriptor; neither is an error. An empty relativePath
// uses the configured default.
func (i *Importer) LoadGenerator(ctx context.Context, pkg, file, relativePath string) (starlark.Value, bool, error) {
	pkgPath, ok := i.resolver.Resolve(pkg)
	if !ok {
		i.logger.Debug("package not found", "package", pkg)
		return nil, false, nil
	}

	path := i.ParamsPath(pkgPath, file, relativePath)
	i.logger.Debug("loading parameter file", "package", pkg, "path", path)

	v, found, err := i.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("package %s: %w", pkg, err)
	}
	return v, found, nil
}

// ParamsPath returns the file to load from the package at pkgPath. The
// relative path is tried first; otherwise the legacy cfg path is returned,
// whether or not it exists.
func (i *Importer) ParamsPath(pkgPath, file, relativePath string) string {
	if relativePath == "" {
		relativePath = i.paramsDir
	}

	candidate := filepath.Join(pkgPath, relativePath, file)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return filepath.Join(pkgPath, LegacyParamsDir, file)
}

// Request names one borrowed definition.
type Request struct {
	Package      string `json:"package" yaml:"package"`
	File         string `json:"file" yaml:"file"`
	RelativePath string `json:"relative_path,omitempty" yaml:"relative_path,omitempty"`
}

func (r Request) String() string {
	return r.Package + ":" + r.File
}

// Result is the outcome of one Request.
type Result struct {
	Request Request
	Value   starlark.Value
	Found   bool
}

// LoadAll runs the requests concurrently. Results are returned in request
// order. The first hard failure cancels the remaining loads and is returned.
func (i *Importer) LoadAll(ctx context.Context, requests []Request) ([]Result, error) {
	results := make([]Result, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	if i.concurrency > 0 {
		g.SetLimit(i.concurrency)
	}

	for idx, req := range requests {
		g.Go(func() error {
			v, found, err := i.LoadGenerator(ctx, req.Package, req.File, req.RelativePath)
			if err != nil {
				return err
			}
			results[idx] = Result{Request: req, Value: v, Found: found}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
