package registry

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Crawl walks every root and registers each package it finds. Roots are
// searched in order, so a package under an earlier root shadows one of the
// same name under a later root. The crawler does not descend into packages,
// hidden directories or directories holding a CATKIN_IGNORE marker. Symlinked
// directories are followed and their packages are reported by real path.
//
// Unreadable directories and malformed manifests are skipped: a broken
// sibling must not hide the package the caller is looking for.
func Crawl(roots []string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reg := NewRegistry()
	for _, root := range roots {
		if root == "" {
			continue
		}
		crawlRoot(reg, root, logger)
	}
	return reg
}

// crawler walks package roots. Directory symlinks are followed; visited
// holds every real directory entered so link cycles end.
type crawler struct {
	reg     *Registry
	logger  *slog.Logger
	visited map[string]bool
}

func crawlRoot(reg *Registry, root string, logger *slog.Logger) {
	abs, err := filepath.Abs(root)
	if err != nil {
		logger.Debug("skipping package root", "root", root, "error", err)
		return
	}
	// WalkDir does not follow a symlinked root.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	c := &crawler{reg: reg, logger: logger, visited: make(map[string]bool)}
	if err := c.walk(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Debug("package root walk failed", "root", abs, "error", err)
	}
}

func (c *crawler) walk(top string) error {
	return filepath.WalkDir(top, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != top {
				return filepath.SkipDir
			}
			return nil
		}
		if path != top && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			c.follow(path)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if c.visited[path] {
			return filepath.SkipDir
		}
		c.visited[path] = true

		if exists(filepath.Join(path, IgnoreMarker)) {
			return filepath.SkipDir
		}

		manifestPath := filepath.Join(path, ManifestFile)
		if !exists(manifestPath) {
			return nil
		}

		pkg, err := ReadManifest(manifestPath)
		if err != nil {
			c.logger.Debug("skipping package", "error", err)
			return filepath.SkipDir
		}
		if !c.reg.Register(pkg) {
			c.logger.Debug("package shadowed", "name", pkg.Name, "path", pkg.Path)
		}
		return filepath.SkipDir
	})
}

// follow walks the directory a symlink points to. Links to files, dangling
// links and directories already visited are skipped.
func (c *crawler) follow(link string) {
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		c.logger.Debug("skipping dangling symlink", "path", link, "error", err)
		return
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() || c.visited[target] {
		return
	}
	if err := c.walk(target); err != nil {
		c.logger.Debug("symlinked directory walk failed", "path", link, "target", target, "error", err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
