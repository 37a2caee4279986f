package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
)

func rootMain(command *cobra.Command, arguments []string) error {
	// If no commands were given, then print help information and bail.
	return command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "fsal",
	Short: "Filesystem abstraction daemon and client",
	Run:   cmd.Mainify(rootMain),
}

var rootConfiguration struct {
	// help indicates whether or not help information should be shown for the
	// command.
	help bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	// Register commands. We do this here (rather than in individual init
	// functions) so that we can control the order.
	rootCommand.AddCommand(
		daemonCommand,
		listCommand,
		searchCommand,
		existsCommand,
		infoCommand,
		duCommand,
		removeCommand,
		transferCommand,
		consolidateCommand,
		refreshCommand,
		changesCommand,
		basePathsCommand,
		versionCommand,
	)
}

func main() {
	// Execute the root command.
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
