// Package daemon provides process-level facilities for running the indexer as
// a long-lived background service: a singleton lock and PID file handling.
package daemon

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Lock represents the daemon singleton lock. It is held by a single daemon
// instance at a time and released automatically by the kernel if the process
// dies.
type Lock struct {
	// file is the underlying lock file.
	file *os.File
}

// AcquireLock attempts to acquire the daemon lock using the file at the
// specified path, creating the file if necessary. Acquisition is
// non-blocking: if another process holds the lock, an error is returned
// immediately.
func AcquireLock(path string) (*Lock, error) {
	// Open (or create) the lock file.
	mode := os.O_RDWR | os.O_CREATE
	file, err := os.OpenFile(path, mode, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}

	// Attempt to acquire an exclusive write lock on the whole file.
	lockSpec := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(file.Fd(), unix.F_SETLK, &lockSpec); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "unable to acquire lock")
	}

	// Success.
	return &Lock{file: file}, nil
}

// Release releases the daemon lock.
func (l *Lock) Release() error {
	// Release the lock.
	unlockSpec := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(l.file.Fd(), unix.F_SETLK, &unlockSpec); err != nil {
		l.file.Close()
		return errors.Wrap(err, "unable to release lock")
	}

	// Close the lock file.
	return errors.Wrap(l.file.Close(), "unable to close lock file")
}
