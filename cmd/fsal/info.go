package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func infoMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("expected a single path argument")
	}

	// Resolve the object.
	object, err := client.New(infoConfiguration.socketPath).GetFSO(arguments[0])
	if err != nil {
		return err
	}

	// Print its details.
	kind := "file"
	if object.IsDir() {
		kind = "directory"
	}
	fmt.Println("Path:", object.Path())
	fmt.Println("Base path:", object.BasePath)
	fmt.Println("Type:", kind)
	if object.IsFile() {
		fmt.Printf("Size: %s (%d bytes)\n", humanize.IBytes(uint64(object.Size)), object.Size)
	}
	fmt.Println("Created:", object.CreateDate.Format(listingTimeFormat))
	fmt.Println("Modified:", object.ModifyDate.Format(listingTimeFormat))
	return nil
}

var infoCommand = &cobra.Command{
	Use:   "info <path>",
	Short: "Shows details for an indexed path",
	Run:   cmd.Mainify(infoMain),
}

var infoConfiguration struct {
	help       bool
	socketPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := infoCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&infoConfiguration.help, "help", "h", false, "Show help information")

	// Wire up info flags.
	flags.StringVar(&infoConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
}
