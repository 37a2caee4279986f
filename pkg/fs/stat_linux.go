package fs

import (
	"os"
	"syscall"
	"time"
)

// createTime extracts the creation date for an entry. Linux doesn't expose
// birth times through stat, so the status change time is used, matching what
// clients historically received.
func createTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}
	return info.ModTime()
}
