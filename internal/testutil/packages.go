package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ManifestXML returns a minimal catkin package.xml for name.
func ManifestXML(name string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<package format="2">
  <name>%s</name>
  <version>1.0.0</version>
  <description>The %s package</description>
  <maintainer email="dev@example.com">dev</maintainer>
  <license>BSD</license>
</package>
`, name, name)
}

// WritePackage creates a package named name under root/dir with a
// package.xml manifest and the given files (paths relative to the package).
// It returns the package directory.
func WritePackage(t testing.TB, root, dir, name string, files map[string]string) string {
	t.Helper()

	pkgDir := filepath.Join(root, dir)
	WriteFile(t, filepath.Join(pkgDir, "package.xml"), ManifestXML(name))
	for rel, content := range files {
		WriteFile(t, filepath.Join(pkgDir, rel), content)
	}
	return pkgDir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
