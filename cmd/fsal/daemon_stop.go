package main

import (
	"syscall"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/daemon"
)

func daemonStopMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 0 {
		return errors.New("unexpected arguments provided")
	}

	// Identify the running daemon.
	pid, err := daemon.ReadPID(daemonStopConfiguration.pidPath)
	if err != nil {
		return err
	}

	// Request a graceful shutdown. The daemon removes its own PID file on
	// exit.
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return errors.Wrap(err, "unable to signal daemon")
	}

	// Success.
	return nil
}

var daemonStopCommand = &cobra.Command{
	Use:   "stop",
	Short: "Stops the daemon if it's running",
	Run:   cmd.Mainify(daemonStopMain),
}

var daemonStopConfiguration struct {
	help    bool
	pidPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := daemonStopCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&daemonStopConfiguration.help, "help", "h", false, "Show help information")

	// Wire up stop flags.
	flags.StringVar(&daemonStopConfiguration.pidPath, "pid-file", defaultPIDPath, "PID file path")
}
