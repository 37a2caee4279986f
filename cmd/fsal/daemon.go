package main

import (
	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
)

const (
	// defaultConfigurationPath is the default daemon configuration file path.
	defaultConfigurationPath = "/etc/fsal.yaml"
	// defaultPIDPath is the default daemon PID file path.
	defaultPIDPath = "/var/run/fsal.pid"
	// defaultLockPath is the default daemon lock file path.
	defaultLockPath = "/var/run/fsal.lock"
)

func daemonMain(command *cobra.Command, arguments []string) error {
	// If no commands were given, then print help information and bail.
	return command.Help()
}

var daemonCommand = &cobra.Command{
	Use:   "daemon",
	Short: "Controls the daemon lifecycle",
	Run:   cmd.Mainify(daemonMain),
}

var daemonConfiguration struct {
	help bool
}

func init() {
	// Bind flags to configuration. We manually add help to override the default
	// message, but Cobra still implements it automatically.
	flags := daemonCommand.Flags()
	flags.BoolVarP(&daemonConfiguration.help, "help", "h", false, "Show help information")

	// Register commands.
	daemonCommand.AddCommand(
		daemonRunCommand,
		daemonStartCommand,
		daemonStopCommand,
	)
}
