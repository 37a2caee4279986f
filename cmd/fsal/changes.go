package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
	"github.com/Othernet-Project/fsal/pkg/events"
)

// eventTag returns a colorized tag for the specified event type.
func eventTag(eventType events.Type) string {
	switch eventType {
	case events.TypeCreated:
		return color.GreenString("created")
	case events.TypeDeleted:
		return color.RedString("deleted")
	case events.TypeModified:
		return color.YellowString("modified")
	}
	return string(eventType)
}

func changesMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 0 {
		return errors.New("unexpected arguments provided")
	}

	// Fetch pending change events.
	changesClient := client.New(changesConfiguration.socketPath)
	pending, err := changesClient.GetChanges(changesConfiguration.limit)
	if err != nil {
		return err
	}

	// Print them.
	for _, event := range pending {
		kind := "file"
		if event.Dir {
			kind = "dir"
		}
		fmt.Printf("%s  %-4s  %s\n", eventTag(event.Type), kind, event.Src)
	}

	// Acknowledge the batch if requested.
	if changesConfiguration.confirm && len(pending) > 0 {
		return changesClient.ConfirmChanges(len(pending))
	}
	return nil
}

var changesCommand = &cobra.Command{
	Use:   "changes",
	Short: "Shows pending change events",
	Run:   cmd.Mainify(changesMain),
}

var changesConfiguration struct {
	help       bool
	socketPath string
	// limit is the maximum number of events to fetch.
	limit int
	// confirm acknowledges the fetched events, removing them from the queue.
	confirm bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := changesCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&changesConfiguration.help, "help", "h", false, "Show help information")

	// Wire up changes flags.
	flags.StringVar(&changesConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
	flags.IntVar(&changesConfiguration.limit, "limit", 100, "Maximum number of events to fetch")
	flags.BoolVar(&changesConfiguration.confirm, "confirm", false, "Acknowledge the fetched events")
}
