//go:build !linux && !darwin

package fs

import (
	"os"
	"time"
)

// createTime extracts the creation date for an entry. On platforms without an
// accessible status change time, the modification time is used.
func createTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
