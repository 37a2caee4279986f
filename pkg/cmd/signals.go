//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals that request a graceful daemon shutdown.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
