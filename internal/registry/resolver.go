package registry

import (
	"log/slog"
	"os"
	"path/filepath"
)

// PackagePathEnv is the environment variable listing package search roots,
// separated by os.PathListSeparator.
const PackagePathEnv = "ROS_PACKAGE_PATH"

// RootsFromEnv returns the search roots from ROS_PACKAGE_PATH.
func RootsFromEnv() []string {
	return filepath.SplitList(os.Getenv(PackagePathEnv))
}

// Resolver looks packages up against the live filesystem. Nothing is
// cached: every call crawls the roots again, so packages installed or
// removed between calls are seen.
type Resolver struct {
	roots  []string
	logger *slog.Logger
}

// ResolverOption is a functional option for configuring a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger for crawl diagnostics.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over roots. With no roots it falls back to
// ROS_PACKAGE_PATH.
func NewResolver(roots []string, opts ...ResolverOption) *Resolver {
	if len(roots) == 0 {
		roots = RootsFromEnv()
	}
	r := &Resolver{
		roots:  roots,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Roots returns the search roots in priority order.
func (r *Resolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Resolve returns the directory of the named package, or false when no
// package of that name exists. An unknown package is not an error.
func (r *Resolver) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	path, ok := Crawl(r.roots, r.logger).Resolve(name)
	if !ok {
		r.logger.Debug("package not found", "name", name, "roots", r.roots)
		return "", false
	}
	return path, true
}

// List returns every package visible to the resolver, sorted by name.
func (r *Resolver) List() []*Package {
	return Crawl(r.roots, r.logger).All()
}
