package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func duMain(command *cobra.Command, arguments []string) error {
	// Determine the path to size up. Without arguments, size up the root.
	path := "/"
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return errors.New("expected at most one path argument")
	}

	// Query the total size.
	size, err := client.New(duConfiguration.socketPath).GetPathSize(path)
	if err != nil {
		return err
	}

	// Print it.
	fmt.Printf("%s (%d bytes)\n", humanize.IBytes(uint64(size)), size)
	return nil
}

var duCommand = &cobra.Command{
	Use:   "du [<path>]",
	Short: "Shows the total size of the files under a path",
	Run:   cmd.Mainify(duMain),
}

var duConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := duCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&duConfiguration.help, "help", "h", false, "Show help information")

	// Wire up du flags.
	flags.StringVar(&duConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
