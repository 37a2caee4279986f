package main

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
)

func daemonStartMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 0 {
		return errors.New("unexpected arguments provided")
	}

	// Compute the path to the current executable.
	executablePath, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "unable to determine executable path")
	}

	// Start the daemon in the background, detached from the controlling
	// terminal. The run command records its own PID.
	daemonProcess := &exec.Cmd{
		Path: executablePath,
		Args: []string{
			"fsal", "daemon", "run",
			"--conf", daemonStartConfiguration.configurationPath,
			"--pid-file", daemonStartConfiguration.pidPath,
			"--lock-file", daemonStartConfiguration.lockPath,
		},
		SysProcAttr: daemonProcessAttributes,
	}
	if err := daemonProcess.Start(); err != nil {
		return errors.Wrap(err, "unable to fork daemon")
	}

	// Success.
	return nil
}

var daemonStartCommand = &cobra.Command{
	Use:   "start",
	Short: "Starts the daemon if it's not already running",
	Run:   cmd.Mainify(daemonStartMain),
}

var daemonStartConfiguration struct {
	help              bool
	configurationPath string
	pidPath           string
	lockPath          string
}

func init() {
	// Grab a handle for the command line flags.
	flags := daemonStartCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&daemonStartConfiguration.help, "help", "h", false, "Show help information")

	// Wire up start flags.
	flags.StringVar(&daemonStartConfiguration.configurationPath, "conf", defaultConfigurationPath, "Configuration file path")
	flags.StringVar(&daemonStartConfiguration.pidPath, "pid-file", defaultPIDPath, "PID file path")
	flags.StringVar(&daemonStartConfiguration.lockPath, "lock-file", defaultLockPath, "Lock file path")
}
