package cmd

import (
	"github.com/spf13/cobra"
)

// Mainify adapts an error-returning command entry point to the signature that
// cobra expects for Run. Entry points rely on defer-based cleanup (releasing
// the daemon lock, removing the PID file, closing the socket), so they must
// not exit the process themselves; the returned error is reported and the
// process terminated only after those deferred releases have run.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}
