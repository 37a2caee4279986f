package main

import (
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func refreshMain(command *cobra.Command, arguments []string) error {
	// Without arguments, request a full reconcile. With a path, request a
	// targeted re-scan.
	refreshClient := client.New(refreshConfiguration.socketPath)
	if len(arguments) == 0 {
		return refreshClient.Refresh()
	} else if len(arguments) == 1 {
		return refreshClient.RefreshPath(arguments[0])
	}
	return errors.New("expected at most one path argument")
}

var refreshCommand = &cobra.Command{
	Use:   "refresh [<path>]",
	Short: "Schedules a re-scan of the index",
	Run:   cmd.Mainify(refreshMain),
}

var refreshConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := refreshCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&refreshConfiguration.help, "help", "h", false, "Show help information")

	// Wire up refresh flags.
	flags.StringVar(&refreshConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
