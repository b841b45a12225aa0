// Package registry resolves build package names to their directories.
// Packages are discovered by crawling search roots for package.xml manifests,
// the way the host build system's own tools find them.
package registry

import (
	"sort"
	"sync"
)

// Package is a build package discovered on disk.
type Package struct {
	Name        string
	Path        string // absolute package directory
	Manifest    string // absolute path to package.xml
	Version     string
	Description string
}

// Registry maps package names to packages.
type Registry struct {
	mu sync.RWMutex

	// byName maps package names to packages: "rosparam_tutorials" → *Package
	// Note: the first registered package wins on duplicate names
	byName map[string]*Package

	// shadowed tracks directories hidden by an earlier package of the same name
	shadowed map[string][]string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]*Package),
		shadowed: make(map[string][]string),
	}
}

// Register adds a package to the registry. It returns false, leaving the
// registry unchanged apart from the shadow record, when a package with the
// same name is already registered.
func (r *Registry) Register(pkg *Package) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[pkg.Name]; ok {
		r.shadowed[pkg.Name] = append(r.shadowed[pkg.Name], pkg.Path)
		return false
	}
	r.byName[pkg.Name] = pkg
	return true
}

// Resolve returns the directory of the named package.
// Returns the path and true if found, or empty string and false otherwise.
func (r *Registry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pkg, ok := r.byName[name]
	if !ok {
		return "", false
	}
	return pkg.Path, true
}

// Get returns the package registered under name.
func (r *Registry) Get(name string) (*Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.byName[name]
	return pkg, ok
}

// Shadowed returns the directories of packages named name that lost to the
// registered one.
func (r *Registry) Shadowed(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.shadowed[name]...)
}

// All returns all registered packages sorted by name.
func (r *Registry) All() []*Package {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pkgs := make([]*Package, 0, len(r.byName))
	for _, pkg := range r.byName {
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		return pkgs[i].Name < pkgs[j].Name
	})
	return pkgs
}

// Count returns the number of registered packages.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
