package daemon

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// WritePID records the specified process id in the PID file at the specified
// path.
func WritePID(path string, pid int) error {
	content := strconv.Itoa(pid) + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrap(err, "unable to write PID file")
	}
	return nil
}

// ReadPID reads a process id from the PID file at the specified path.
func ReadPID(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "unable to read PID file")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID file contents")
	}
	if pid <= 0 {
		return 0, errors.Errorf("invalid process id: %d", pid)
	}
	return pid, nil
}

// RemovePID removes the PID file at the specified path, if it exists.
func RemovePID(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "unable to remove PID file")
	}
	return nil
}
