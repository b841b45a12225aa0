package registry

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestFile is the file that marks a directory as a package.
const ManifestFile = "package.xml"

// IgnoreMarker stops the crawler from descending into a directory.
const IgnoreMarker = "CATKIN_IGNORE"

// manifest is the subset of the catkin package.xml format we read.
type manifest struct {
	XMLName     xml.Name `xml:"package"`
	Format      string   `xml:"format,attr"`
	Name        string   `xml:"name"`
	Version     string   `xml:"version"`
	Description string   `xml:"description"`
}

// ReadManifest parses the package.xml at path. The returned package's Path
// is the manifest's directory.
func ReadManifest(path string) (*Package, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from crawling configured package roots
	if err != nil {
		return nil, &ManifestError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	var m manifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestError{File: path, Message: fmt.Sprintf("invalid XML: %v", err)}
	}

	name := strings.TrimSpace(m.Name)
	if name == "" {
		return nil, &ManifestError{File: path, Message: "missing <name>"}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ManifestError{File: path, Message: err.Error()}
	}

	return &Package{
		Name:        name,
		Path:        filepath.Dir(abs),
		Manifest:    abs,
		Version:     strings.TrimSpace(m.Version),
		Description: strings.Join(strings.Fields(m.Description), " "),
	}, nil
}

// ManifestError represents an unreadable or malformed package manifest.
type ManifestError struct {
	File    string
	Message string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %s", e.File, e.Message)
}
