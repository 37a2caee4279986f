package main

import (
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func removeMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("expected a single path argument")
	}

	// Perform the removal.
	return client.New(removeConfiguration.socketPath).Remove(arguments[0])
}

var removeCommand = &cobra.Command{
	Use:   "remove <path>",
	Short: "Removes a path from disk and from the index",
	Run:   cmd.Mainify(removeMain),
}

var removeConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := removeCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&removeConfiguration.help, "help", "h", false, "Show help information")

	// Wire up remove flags.
	flags.StringVar(&removeConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
