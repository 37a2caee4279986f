package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func basePathsMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 0 {
		return errors.New("unexpected arguments provided")
	}

	// Fetch and print the configured base paths.
	basePaths, err := client.New(basePathsConfiguration.socketPath).ListBasePaths()
	if err != nil {
		return err
	}
	for _, basePath := range basePaths {
		fmt.Println(basePath)
	}
	return nil
}

var basePathsCommand = &cobra.Command{
	Use:   "base-paths",
	Short: "Lists the daemon's configured base paths",
	Run:   cmd.Mainify(basePathsMain),
}

var basePathsConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := basePathsCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&basePathsConfiguration.help, "help", "h", false, "Show help information")

	// Wire up base-paths flags.
	flags.StringVar(&basePathsConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
