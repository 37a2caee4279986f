// Package bundles implements recognition and extraction of archive bundles
// delivered into a designated sub-tree of a base path.
package bundles

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

// Extractor recognises and unpacks bundles for a single base path. Bundles
// are identified by directory prefix and extension, not magic bytes.
type Extractor struct {
	// basePath is the base path bundles are delivered under and extracted
	// into.
	basePath string
	// bundlesDir is the relative sub-directory that receives bundles.
	bundlesDir string
	// extensions is the allow-list of bundle extensions.
	extensions map[string]bool
	// logger is the extractor's logger.
	logger *logging.Logger
}

// NewExtractor creates an extractor for the specified base path.
func NewExtractor(basePath string, configuration configuration.Bundles, logger *logging.Logger) *Extractor {
	extensions := make(map[string]bool, len(configuration.BundlesExts))
	for _, extension := range configuration.BundlesExts {
		extensions[strings.ToLower(extension)] = true
	}
	return &Extractor{
		basePath:   basePath,
		bundlesDir: configuration.BundlesDir,
		extensions: extensions,
		logger:     logger,
	}
}

// BundlesDir returns the relative sub-directory that receives bundles.
func (e *Extractor) BundlesDir() string {
	return e.bundlesDir
}

// abspath resolves a relative bundle path against the base path.
func (e *Extractor) abspath(relPath string) string {
	return filepath.Join(e.basePath, relPath)
}

// IsBundle checks whether the specified relative path identifies a bundle: an
// existing file, under the bundles directory, with an allowed extension.
func (e *Extractor) IsBundle(relPath string) bool {
	info, err := os.Stat(e.abspath(relPath))
	if err != nil || info.IsDir() {
		return false
	}
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(relPath)), ".")
	return paths.CommonAncestor(relPath, e.bundlesDir) != "" && e.extensions[extension]
}

// Extract unpacks the bundle at the specified relative path into the base
// path and deletes the source archive. It returns whether extraction
// succeeded along with the relative paths of the extracted entries. Failures
// are logged and reported as (false, nil).
func (e *Extractor) Extract(relPath string) (bool, []string) {
	if !e.IsBundle(relPath) {
		e.logger.Warnf("%s is not a recognized bundle", relPath)
		return false, nil
	}
	extracted, err := extractZip(e.abspath(relPath), e.basePath)
	if err != nil {
		e.logger.Errorf("error while extracting bundle %s: %v", relPath, err)
		return false, nil
	}
	if err := os.Remove(e.abspath(relPath)); err != nil {
		e.logger.Warnf("unable to remove extracted bundle %s: %v", relPath, err)
	}
	return true, extracted
}

// extractZip unpacks a zip archive into the specified directory, returning
// the relative paths of the extracted entries. Entries whose canonical path
// would escape the destination are rejected.
func extractZip(archivePath, destination string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open archive")
	}
	defer reader.Close()

	var extracted []string
	for _, entry := range reader.File {
		name := filepath.Clean(filepath.FromSlash(entry.Name))
		target := filepath.Join(destination, name)
		if !strings.HasPrefix(target, destination+string(filepath.Separator)) {
			return nil, errors.Errorf("archive entry escapes destination: %s", entry.Name)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, errors.Wrap(err, "unable to create directory")
			}
			extracted = append(extracted, name)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, errors.Wrap(err, "unable to create parent directory")
		}
		if err := extractZipFile(entry, target); err != nil {
			return nil, err
		}
		extracted = append(extracted, name)
	}
	return extracted, nil
}

// extractZipFile writes a single archive entry to the specified target path.
func extractZipFile(entry *zip.File, target string) error {
	source, err := entry.Open()
	if err != nil {
		return errors.Wrap(err, "unable to open archive entry")
	}
	defer source.Close()

	destination, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "unable to create file")
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return errors.Wrap(err, "unable to write file contents")
	}
	return nil
}
