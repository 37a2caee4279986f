package main

import (
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func transferMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 2 {
		return errors.New("expected source and destination arguments")
	}

	// Perform the transfer.
	return client.New(transferConfiguration.socketPath).Transfer(arguments[0], arguments[1])
}

var transferCommand = &cobra.Command{
	Use:   "transfer <source> <destination>",
	Short: "Moves an external file or directory into the index",
	Run:   cmd.Mainify(transferMain),
}

var transferConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := transferCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&transferConfiguration.help, "help", "h", false, "Show help information")

	// Wire up transfer flags.
	flags.StringVar(&transferConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
