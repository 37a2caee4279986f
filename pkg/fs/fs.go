// Package fs provides the immutable value objects that represent filesystem
// entries, both as materialised from disk stats and as reconstructed from
// index rows or wire nodes.
package fs

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Entry type discriminators as persisted in the index.
const (
	// TypeFile marks an index entry as a file.
	TypeFile = 0
	// TypeDirectory marks an index entry as a directory.
	TypeDirectory = 1
)

// Object represents a single filesystem entry. Instances are ephemeral
// materialisations of stat results or index rows and are never shared across
// goroutines.
type Object struct {
	// BasePath is the absolute path of the base the entry belongs to.
	BasePath string
	// RelPath is the path relative to BasePath. It is normalised, never leads
	// with a separator, and never escapes the base.
	RelPath string
	// Name is the last segment of RelPath.
	Name string
	// CreateDate is the creation (status change) time from stat.
	CreateDate time.Time
	// ModifyDate is the modification time from stat.
	ModifyDate time.Time
	// Size is the entry size in bytes. It is 0 for directories.
	Size int64
	// Directory indicates whether the entry is a directory.
	Directory bool
}

// NewFile constructs a file Object from explicit field values.
func NewFile(basePath, relPath string, size int64, createDate, modifyDate time.Time) *Object {
	return &Object{
		BasePath:   basePath,
		RelPath:    relPath,
		Name:       filepath.Base(relPath),
		CreateDate: createDate,
		ModifyDate: modifyDate,
		Size:       size,
	}
}

// NewDirectory constructs a directory Object from explicit field values.
func NewDirectory(basePath, relPath string, createDate, modifyDate time.Time) *Object {
	return &Object{
		BasePath:   basePath,
		RelPath:    relPath,
		Name:       filepath.Base(relPath),
		CreateDate: createDate,
		ModifyDate: modifyDate,
		Directory:  true,
	}
}

// FromInfo constructs an Object from an existing stat result.
func FromInfo(basePath, relPath string, info os.FileInfo) *Object {
	result := &Object{
		BasePath:   basePath,
		RelPath:    relPath,
		Name:       filepath.Base(relPath),
		CreateDate: createTime(info),
		ModifyDate: info.ModTime(),
		Directory:  info.IsDir(),
	}
	if !result.Directory {
		result.Size = info.Size()
	}
	return result
}

// FromPath stats the entry identified by the specified base and relative path
// and constructs the corresponding Object. Symbolic links are not followed.
func FromPath(basePath, relPath string) (*Object, error) {
	info, err := os.Lstat(filepath.Join(basePath, relPath))
	if err != nil {
		return nil, errors.Wrap(err, "unable to stat path")
	}
	return FromInfo(basePath, relPath, info), nil
}

// Path returns the absolute path of the entry.
func (o *Object) Path() string {
	return filepath.Join(o.BasePath, o.RelPath)
}

// IsDir indicates whether the entry is a directory.
func (o *Object) IsDir() bool {
	return o.Directory
}

// IsFile indicates whether the entry is a file.
func (o *Object) IsFile() bool {
	return !o.Directory
}

// Type returns the index type discriminator for the entry.
func (o *Object) Type() int {
	if o.Directory {
		return TypeDirectory
	}
	return TypeFile
}

// Equal checks two objects for full equality: same kind, same full path, same
// creation date, same modification date, and same size. Timestamps are
// compared at microsecond granularity, the resolution preserved by the index
// and the wire format.
func (o *Object) Equal(other *Object) bool {
	if other == nil {
		return false
	}
	return o.Directory == other.Directory &&
		o.Path() == other.Path() &&
		o.CreateDate.UnixMicro() == other.CreateDate.UnixMicro() &&
		o.ModifyDate.UnixMicro() == other.ModifyDate.UnixMicro() &&
		o.Size == other.Size
}

// Changed checks whether the entry differs from another in a way that should
// produce a modification event. It behaves like Equal but ignores the
// creation date.
func (o *Object) Changed(other *Object) bool {
	if other == nil {
		return true
	}
	return o.Directory != other.Directory ||
		o.Path() != other.Path() ||
		o.ModifyDate.UnixMicro() != other.ModifyDate.UnixMicro() ||
		o.Size != other.Size
}

// Timestamp converts a time to float seconds since the UNIX epoch
// (1970-01-01 00:00:00 UTC), preserving fractional seconds.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// FromTimestamp converts float seconds since the UNIX epoch back to a time.
// The conversion is exact at microsecond granularity.
func FromTimestamp(seconds float64) time.Time {
	return time.Unix(0, int64(math.Round(seconds*1e6))*1e3)
}
