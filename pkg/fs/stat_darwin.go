package fs

import (
	"os"
	"syscall"
	"time"
)

// createTime extracts the creation date for an entry.
func createTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Ctimespec.Sec, stat.Ctimespec.Nsec)
	}
	return info.ModTime()
}
