package main

import (
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func consolidateMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("expected a single destination base path argument")
	}

	// Schedule the consolidation.
	return client.New(consolidateConfiguration.socketPath).Consolidate(arguments[0])
}

var consolidateCommand = &cobra.Command{
	Use:   "consolidate <base-path>",
	Short: "Moves the content of all other base paths into the specified one",
	Run:   cmd.Mainify(consolidateMain),
}

var consolidateConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := consolidateCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&consolidateConfiguration.help, "help", "h", false, "Show help information")

	// Wire up consolidate flags.
	flags.StringVar(&consolidateConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
