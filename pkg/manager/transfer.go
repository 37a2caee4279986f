package manager

import (
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"golang.org/x/sys/unix"

	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

// maximumPathLength is the longest destination path (in bytes) that a
// transfer may produce for any entry.
const maximumPathLength = 32767

// Transfer moves an external source into the index under the last configured
// base path and schedules a re-scan of the smallest affected subtree.
func (m *Manager) Transfer(src, dest string) (bool, string) {
	srcAbs, realDest, message := m.validateTransfer(src, dest)
	if message != "" {
		return false, message
	}

	var success bool
	if !m.runSerialized("transfer "+srcAbs, func() {
		if err := move(srcAbs, realDest); err != nil {
			m.logger.Errorf("transfer of %s failed: %+v", srcAbs, err)
			m.Refresh()
			message = fmt.Sprintf("Transfer failed: %v", err)
			return
		}
		success = true
	}) {
		return false, "Transfer could not be scheduled"
	}
	if !success {
		return false, message
	}

	// Re-index the smallest subtree that safely contains the new content.
	destRel, err := filepath.Rel(m.destinationBase(), realDest)
	if err != nil {
		destRel = paths.Root
	}
	m.scheduleUpdate(m.deepestIndexedParent(destRel))
	return true, ""
}

// validateTransfer validates a transfer request, returning the canonical
// source, the real destination, and an error message when validation fails.
func (m *Manager) validateTransfer(src, dest string) (string, string, string) {
	// The source must be a canonical external path that exists on disk.
	srcAbs, ok := paths.ValidateExternal(src)
	if !ok {
		return "", "", fmt.Sprintf("Invalid source path: %s", src)
	}
	if _, err := os.Lstat(srcAbs); err != nil {
		return "", "", fmt.Sprintf("Source path %s does not exist", srcAbs)
	}

	// The source must not already be inside the index.
	for _, basePath := range m.basePaths {
		if srcAbs == basePath || strings.HasPrefix(srcAbs, basePath+string(filepath.Separator)) {
			return "", "", fmt.Sprintf("Source path %s is already indexed", srcAbs)
		}
	}

	// The destination must be a valid internal path.
	destRel, ok := paths.ValidateInternal(m.primaryBase(), dest)
	if !ok {
		return "", "", fmt.Sprintf("Invalid destination path: %s", dest)
	}

	// Compute the real destination under the last configured base. When the
	// destination is an existing directory, the source keeps its basename.
	realDest := filepath.Join(m.destinationBase(), destRel)
	if info, err := os.Stat(realDest); err == nil && info.IsDir() {
		realDest = filepath.Join(realDest, filepath.Base(srcAbs))
	}
	if _, err := os.Lstat(realDest); err == nil {
		return "", "", fmt.Sprintf("Destination path %s already exists", realDest)
	}

	// Reject the transfer if any produced destination path would exceed the
	// length limit, leaving both source and destination unchanged.
	tooLong := false
	filepath.WalkDir(srcAbs, func(path string, entry iofs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		entryRel, err := filepath.Rel(srcAbs, path)
		if err != nil {
			return nil
		}
		if !withinPathLimit(realDest, entryRel) {
			tooLong = true
			return errors.New("destination path too long")
		}
		return nil
	})
	if tooLong {
		return "", "", fmt.Sprintf("Transfer entry exceeds the %d byte path limit", maximumPathLength)
	}

	return srcAbs, realDest, ""
}

// withinPathLimit checks whether a transferred entry's destination path fits
// the path length limit.
func withinPathLimit(realDest, entryRel string) bool {
	return len(filepath.Join(realDest, entryRel)) <= maximumPathLength
}

// Copy schedules an asynchronous recursive copy between two absolute paths.
// Failures are logged only.
func (m *Manager) Copy(source, dest string) {
	m.scheduler.Schedule("copy "+source, func() {
		if err := copyTree(source, dest); err != nil {
			m.logger.Errorf("copy of %s to %s failed: %+v", source, dest, err)
		}
	})
}

// Consolidate validates that dest names a configured base path and that the
// content of every other base fits in its free space, then schedules a job
// that moves that content into it, followed by a full reconcile.
func (m *Manager) Consolidate(dest string) (bool, string) {
	destBase := filepath.Clean(strings.TrimSpace(dest))
	found := false
	for _, basePath := range m.basePaths {
		if basePath == destBase {
			found = true
			break
		}
	}
	if !found {
		return false, fmt.Sprintf("Destination %s is not a configured base path", dest)
	}

	// The indexed content of every other base must fit on the destination.
	required, err := m.foreignContentSize(destBase)
	if err != nil {
		return false, fmt.Sprintf("Consolidation failed: %v", err)
	}
	free, err := freeSpace(destBase)
	if err != nil {
		return false, fmt.Sprintf("Consolidation failed: %v", err)
	}
	if required > free {
		return false, fmt.Sprintf(
			"Insufficient space on %s: %d bytes required, %d available",
			destBase, required, free,
		)
	}

	m.scheduler.Schedule("consolidate "+destBase, func() {
		m.clearFSOCache()
		m.consolidate(destBase)
		m.refreshDB()
	})
	return true, ""
}

// foreignContentSize sums the indexed file sizes outside the specified base.
func (m *Manager) foreignContentSize(destBase string) (int64, error) {
	var size int64
	err := m.store.DB().QueryRow(
		"select coalesce(sum(size), 0) from fsentries where type = ? and base_path != ?",
		fs.TypeFile, destBase,
	).Scan(&size)
	return size, errors.Wrap(err, "unable to sum content size")
}

// freeSpace reports the free space in bytes available to unprivileged writes
// on the filesystem holding the specified path.
func freeSpace(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, errors.Wrap(err, "unable to stat filesystem")
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}

// consolidate moves the top-level content of every base other than dest into
// dest, skipping (and logging) collisions.
func (m *Manager) consolidate(destBase string) {
	for _, basePath := range m.basePaths {
		if basePath == destBase {
			continue
		}
		entries, err := os.ReadDir(basePath)
		if err != nil {
			m.logger.Warnf("unable to enumerate base %s: %v", basePath, err)
			continue
		}
		for _, entry := range entries {
			source := filepath.Join(basePath, entry.Name())
			target := filepath.Join(destBase, entry.Name())
			if _, err := os.Lstat(target); err == nil {
				m.logger.Warnf("consolidation skipping %s: destination exists", source)
				continue
			}
			if err := move(source, target); err != nil {
				m.logger.Errorf("consolidation of %s failed: %+v", source, err)
			}
		}
	}
}

// move renames a path, falling back to copy-and-delete when the rename fails
// (e.g. across filesystems).
func move(source, dest string) error {
	if err := os.Rename(source, dest); err == nil {
		return nil
	}
	if err := copyTree(source, dest); err != nil {
		return err
	}
	return errors.Wrap(os.RemoveAll(source), "unable to remove source after copy")
}

// copyTree recursively copies a file or directory, preserving permissions.
func copyTree(source, dest string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return errors.Wrap(err, "unable to stat source")
	}
	if !info.IsDir() {
		return copyFile(source, dest, info.Mode())
	}
	if err := os.MkdirAll(dest, info.Mode().Perm()); err != nil {
		return errors.Wrap(err, "unable to create destination directory")
	}
	entries, err := os.ReadDir(source)
	if err != nil {
		return errors.Wrap(err, "unable to enumerate source directory")
	}
	for _, entry := range entries {
		if entry.Type()&iofs.ModeSymlink != 0 {
			continue
		}
		err := copyTree(
			filepath.Join(source, entry.Name()),
			filepath.Join(dest, entry.Name()),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies a single file's contents and mode.
func copyFile(source, dest string, mode iofs.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return errors.Wrap(err, "unable to open source file")
	}
	defer input.Close()

	output, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Wrap(err, "unable to create destination file")
	}
	defer output.Close()

	if _, err := io.Copy(output, input); err != nil {
		return errors.Wrap(err, "unable to copy file contents")
	}
	return nil
}
