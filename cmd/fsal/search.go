package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/client"
)

func searchMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("expected a single query argument")
	}

	// Perform the search.
	isMatch, basePath, objects, err := client.New(searchConfiguration.socketPath).Search(
		arguments[0],
		searchConfiguration.wholeWords,
		searchConfiguration.excludes,
	)
	if err != nil {
		return err
	}

	// Print the results. An exact directory match is listed like a directory.
	if isMatch {
		fmt.Println("Exact match")
	}
	printListing(basePath, objects)
	return nil
}

var searchCommand = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches the index by name or lists a matching directory",
	Run:   cmd.Mainify(searchMain),
}

var searchConfiguration struct {
	help       bool
	socketPath string
	// wholeWords requires results to contain the query as an exact,
	// case-sensitive substring.
	wholeWords bool
	// excludes are regular expression patterns filtering out matching names.
	excludes []string
}

func init() {
	// Grab a handle for the command line flags.
	flags := searchCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&searchConfiguration.help, "help", "h", false, "Show help information")

	// Wire up search flags.
	flags.StringVar(&searchConfiguration.socketPath, "socket", defaultSocketPath, "Daemon socket path")
	flags.BoolVar(&searchConfiguration.wholeWords, "whole-words", false, "Match the query as an exact substring")
	flags.StringArrayVar(&searchConfiguration.excludes, "exclude", nil, "Exclude names matching this pattern (repeatable)")
}
