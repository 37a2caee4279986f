package main

import (
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func listMain(command *cobra.Command, arguments []string) error {
	// Determine the directory to list. Without arguments, list the root.
	path := "/"
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return errors.New("expected at most one path argument")
	}

	// Perform the listing.
	basePath, objects, err := client.New(listConfiguration.socketPath).ListDir(path)
	if err != nil {
		return err
	}

	// Print it.
	printListing(basePath, objects)
	return nil
}

var listCommand = &cobra.Command{
	Use:   "list [<path>]",
	Short: "Lists the indexed content of a directory",
	Run:   cmd.Mainify(listMain),
}

var listConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := listCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&listConfiguration.help, "help", "h", false, "Show help information")

	// Wire up list flags.
	flags.StringVar(&listConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
