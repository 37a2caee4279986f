package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func existsMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("expected a single path argument")
	}

	// Perform the check.
	exists, err := client.New(existsConfiguration.socketPath).Exists(
		arguments[0],
		existsConfiguration.unindexed,
	)
	if err != nil {
		return err
	}

	// Print the result and reflect it in the exit code.
	fmt.Println(exists)
	if !exists {
		os.Exit(1)
	}
	return nil
}

var existsCommand = &cobra.Command{
	Use:   "exists <path>",
	Short: "Checks whether a path exists",
	Run:   cmd.Mainify(existsMain),
}

var existsConfiguration struct {
	help       bool
	socketPath string
	// unindexed checks the filesystem directly instead of the index.
	unindexed bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := existsCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&existsConfiguration.help, "help", "h", false, "Show help information")

	// Wire up exists flags.
	flags.StringVar(&existsConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
	flags.BoolVar(&existsConfiguration.unindexed, "unindexed", false, "Check the filesystem instead of the index")
}
